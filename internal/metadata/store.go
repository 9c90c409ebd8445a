package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrManifestNotFound reports a work without a default edition document.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrMalformed reports a metadata document that is not valid YAML for the schema.
	ErrMalformed = errors.New("malformed metadata")
	// ErrInvalidName reports a work, language or variant that cannot name a path segment.
	ErrInvalidName = errors.New("invalid metadata name")
)

const defaultDocument = "default"

// Store gives access to the metadata documents of every work. Optional
// documents that do not exist are returned as (nil, nil).
type Store interface {
	Default(work string) (*Document, error)
	Translation(work, lang string) (*Document, error)
	// Variant with an empty lang loads the parent-language variant.
	Variant(work, lang, variant string) (*Document, error)
	Works() ([]string, error)
	Languages(work string) ([]string, error)
}

// FileStore reads documents from a works directory on disk.
type FileStore struct {
	Root string
}

// NewFileStore returns a store rooted at the works directory.
func NewFileStore(root string) *FileStore { return &FileStore{Root: root} }

func (s *FileStore) Default(work string) (*Document, error) {
	if err := checkNames(work); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Root, work, defaultDocument+".yml")
	doc, err := s.load(path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
	}
	return doc, nil
}

func (s *FileStore) Translation(work, lang string) (*Document, error) {
	if lang == "" {
		return nil, nil
	}
	if err := checkNames(work, lang); err != nil {
		return nil, err
	}
	return s.load(filepath.Join(s.Root, work, lang, defaultDocument+".yml"))
}

func (s *FileStore) Variant(work, lang, variant string) (*Document, error) {
	if variant == "" {
		return nil, nil
	}
	if err := checkNames(work, lang, variant); err != nil {
		return nil, err
	}
	if lang == "" {
		return s.load(filepath.Join(s.Root, work, variant+".yml"))
	}
	return s.load(filepath.Join(s.Root, work, lang, variant+".yml"))
}

// Works lists the work directories, sorted.
func (s *FileStore) Works() ([]string, error) {
	return listDirs(s.Root)
}

// Languages lists the translation directories of work, sorted.
func (s *FileStore) Languages(work string) ([]string, error) {
	if err := checkNames(work); err != nil {
		return nil, err
	}
	return listDirs(filepath.Join(s.Root, work))
}

func (s *FileStore) load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	return ParseDocument(path, data)
}

func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func checkNames(names ...string) error {
	for _, n := range names {
		if n == "" {
			continue
		}
		if n == "." || n == ".." || strings.ContainsAny(n, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidName, n)
		}
	}
	if names[0] == "" {
		return fmt.Errorf("%w: empty work", ErrInvalidName)
	}
	return nil
}
