package epub

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/stage"
	"git.home.luguber.info/inful/bookbuilder/internal/stage/stagetest"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func containerFixture(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "epub")
	writeFile(t, dir, "mimetype", "stale")
	writeFile(t, dir, "META-INF/container.xml", "<container/>")
	writeFile(t, dir, "package.opf", "<package/>")
	writeFile(t, dir, "novel/01.xhtml", "<html>one</html>")
	writeFile(t, dir, "novel/02.xhtml", "<html>two</html>")
	writeFile(t, dir, "novel/images/epub/cover.jpg", "jpeg")
	return dir
}

func entryNames(t *testing.T, archive string) []*zip.File {
	t.Helper()
	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	t.Cleanup(func() { _ = zr.Close() })
	return zr.File
}

func TestAssemble_MimetypeFirstAndStored(t *testing.T) {
	dir := containerFixture(t)
	a := &Assembler{}

	out, err := a.Assemble(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir+".zip", out)

	files := entryNames(t, out)
	require.NotEmpty(t, files)
	first := files[0]
	assert.Equal(t, "mimetype", first.Name)
	assert.Equal(t, zip.Store, first.Method)
	assert.Zero(t, first.Flags&0x8, "mimetype must not use a data descriptor")

	rc, err := first.Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, MediaType, string(body))

	mimetypes := 0
	for _, f := range files[1:] {
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
		assert.NotContains(t, f.Name, `\`)
		if f.Name == "mimetype" {
			mimetypes++
		}
	}
	assert.Zero(t, mimetypes)
}

func TestAssemble_DeterministicOrder(t *testing.T) {
	dir := containerFixture(t)
	a := &Assembler{}

	first, err := a.Assemble(context.Background(), dir, filepath.Join(t.TempDir(), "a.epub"))
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), dir, filepath.Join(t.TempDir(), "b.epub"))
	require.NoError(t, err)

	names := func(p string) []string {
		var out []string
		for _, f := range entryNames(t, p) {
			out = append(out, f.Name)
		}
		return out
	}
	want := []string{
		"mimetype",
		"META-INF/container.xml",
		"novel/01.xhtml",
		"novel/02.xhtml",
		"novel/images/epub/cover.jpg",
		"package.opf",
	}
	assert.Equal(t, want, names(first))
	assert.Equal(t, names(first), names(second))
}

func TestPlan(t *testing.T) {
	entries := Plan([]string{"a.xhtml"})
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Path: "mimetype", Method: 0}, entries[0])
	assert.Equal(t, uint16(8), entries[1].Method)
}

func TestAssemble_SourceMissing(t *testing.T) {
	_, err := (&Assembler{}).Assemble(context.Background(), filepath.Join(t.TempDir(), "nope"), "")
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestAssemble_CanceledLeavesNoArchive(t *testing.T) {
	dir := containerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Assembler{}).Assemble(ctx, dir, "")
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dir + ".zip")
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(dir + ".zip.tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestRelocate_Overwrites(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_site/epub.zip", "new")
	writeFile(t, root, "_output/novel.epub", "old")

	require.NoError(t, Relocate(filepath.Join(root, "_site/epub.zip"), filepath.Join(root, "_output/novel.epub")))

	data, err := os.ReadFile(filepath.Join(root, "_output/novel.epub"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	_, err = os.Stat(filepath.Join(root, "_site/epub.zip"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, Relocate(filepath.Join(root, "missing.zip"), filepath.Join(root, "x.epub")), ErrSourceMissing)
}

func TestItemsAndCopy(t *testing.T) {
	site := t.TempDir()
	writeFile(t, site, "novel/01.xhtml", "1")
	writeFile(t, site, "novel/02.xhtml", "2")
	writeFile(t, site, "novel/images/epub/cover.jpg", "img")
	writeFile(t, site, "novel/fr/images/epub/couverture.jpg", "img-fr")
	writeFile(t, site, "novel/styles/epub.css", "css")
	writeFile(t, site, "assets/images/epub/logo.png", "logo")
	writeFile(t, site, "novel/package.opf", "<package/>")

	l := Layout{
		SiteDir:  site,
		Work:     "novel",
		Language: "fr",
		Pages: []string{
			filepath.Join(site, "novel", "01.xhtml"),
			filepath.Join(site, "novel", "02.xhtml"),
			filepath.Join(site, "novel", "03.xhtml"), // never generated
		},
	}
	items := Items(l)

	var sources []string
	for _, it := range items {
		sources = append(sources, it.Source)
	}
	assert.Contains(t, sources, filepath.Join(site, "novel", "fr", "images", "epub"))
	assert.NotContains(t, sources, filepath.Join(site, "assets", "js", "bundle.js"))

	c := &Copier{ContainerDir: l.ContainerDir()}
	results := c.Copy(context.Background(), items)
	require.Len(t, results, len(items))

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			assert.Equal(t, filepath.Join(site, "novel", "03.xhtml"), r.Item)
		}
	}
	assert.Equal(t, 1, failed)

	for _, rel := range []string{
		"novel/01.xhtml",
		"novel/images/epub/couverture.jpg",
		"novel/styles/epub.css",
		"assets/images/epub/logo.png",
		"package.opf",
	} {
		_, err := os.Stat(filepath.Join(l.ContainerDir(), filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}
}

func TestValidator_ParsesReport(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "novel.epub")
	runner := stagetest.New()
	runner.OnRun = func(cmd stage.Command) stagetest.Result {
		require.Equal(t, []string{archive, "--json", archive + ReportSuffix}, cmd.Args)
		report := `{"checker":{"nFatal":0,"nError":1,"nWarning":2},"messages":[{"ID":"RSC-005","severity":"ERROR","message":"bad","locations":[{"path":"novel/01.xhtml","line":3,"column":7}]}]}`
		require.NoError(t, os.WriteFile(cmd.Args[2], []byte(report), 0o644))
		return stagetest.Result{Code: 1}
	}

	v := &Validator{Runner: runner}
	res, err := v.Validate(context.Background(), archive)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 2, res.Warnings)
	assert.True(t, res.HasFindings())
	assert.Equal(t, "RSC-005", res.Messages[0].ID)
	assert.Equal(t, archive+"--epubcheck.json", res.ReportPath)
}

func TestValidator_NoReportAndNonzeroExit(t *testing.T) {
	runner := stagetest.New()
	runner.Results["validate-epub"] = stagetest.Result{Code: 2}

	_, err := (&Validator{Runner: runner}).Validate(context.Background(), filepath.Join(t.TempDir(), "x.epub"))
	assert.ErrorIs(t, err, stage.ErrExitFailure)
}
