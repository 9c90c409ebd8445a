package epub

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

const (
	// MimetypeName is the archive entry that must come first, stored.
	MimetypeName = "mimetype"
	// MediaType is the content of the mimetype entry.
	MediaType = "application/epub+zip"
)

// ErrSourceMissing reports an absent container folder.
var ErrSourceMissing = errors.New("epub source folder missing")

// Entry describes one archive member.
type Entry struct {
	Path   string // forward-slash, relative to the container root
	Method uint16 // zip.Store or zip.Deflate
}

// Collect returns the container files under dir as forward-slash relative
// paths in lexical walk order. The root mimetype file is excluded because the
// assembler always writes its own.
func Collect(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == MimetypeName {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Plan returns the archive entries Assemble writes for files, in order.
func Plan(files []string) []Entry {
	entries := make([]Entry, 0, len(files)+1)
	entries = append(entries, Entry{Path: MimetypeName, Method: zip.Store})
	for _, f := range files {
		entries = append(entries, Entry{Path: f, Method: zip.Deflate})
	}
	return entries
}

// Assembler zips a container folder into an EPUB archive.
type Assembler struct {
	// Level is the deflate level; zero selects flate.BestCompression.
	Level  int
	Logger *slog.Logger
}

// Assemble writes the archive for sourceDir to dest, or to sourceDir+".zip"
// when dest is empty, and returns its path. It returns only after the file is
// flushed and closed. A partially written archive is removed.
func (a *Assembler) Assemble(ctx context.Context, sourceDir, dest string) (string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrSourceMissing, sourceDir)
	}
	if dest == "" {
		dest = filepath.Clean(sourceDir) + ".zip"
	}
	files, err := Collect(sourceDir)
	if err != nil {
		return "", fmt.Errorf("collect %s: %w", sourceDir, err)
	}

	tmp := dest + ".tmp"
	if err := a.write(ctx, sourceDir, tmp, Plan(files)); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize %s: %w", dest, err)
	}

	if st, err := os.Stat(dest); err == nil {
		a.logger().Info("EPUB archive created",
			logfields.Path(dest),
			logfields.Count(len(files)+1),
			slog.String("size", humanize.Bytes(uint64(st.Size()))))
	}
	return dest, nil
}

func (a *Assembler) write(ctx context.Context, sourceDir, target string, entries []Entry) (err error) {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()

	level := a.Level
	if level == 0 {
		level = flate.BestCompression
	}
	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Path == MimetypeName {
			err = writeMimetype(zw)
		} else {
			err = addFile(zw, sourceDir, e)
		}
		if err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return f.Sync()
}

// writeMimetype writes the mimetype member raw so it carries no data
// descriptor and no compression.
func writeMimetype(zw *zip.Writer) error {
	body := []byte(MediaType)
	hdr := &zip.FileHeader{
		Name:               MimetypeName,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(body),
		CompressedSize64:   uint64(len(body)),
		UncompressedSize64: uint64(len(body)),
		Modified:           time.Now(),
	}
	w, err := zw.CreateRaw(hdr)
	if err != nil {
		return fmt.Errorf("write mimetype: %w", err)
	}
	_, err = w.Write(body)
	return err
}

func addFile(zw *zip.Writer, sourceDir string, e Entry) error {
	rel := e.Path
	src := filepath.Join(sourceDir, filepath.FromSlash(rel))
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	defer func() { _ = in.Close() }()

	st, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}
	hdr, err := zip.FileInfoHeader(st)
	if err != nil {
		return fmt.Errorf("header %s: %w", rel, err)
	}
	hdr.Name = path.Clean(rel)
	hdr.Method = e.Method
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
