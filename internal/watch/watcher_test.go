package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresTrigger(t *testing.T) {
	_, err := New([]string{t.TempDir()}, time.Millisecond, nil)
	require.Error(t, err)
}

func TestRun_NoExistingPaths(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, time.Millisecond,
		func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}

func TestIgnored(t *testing.T) {
	w := &Watcher{ignore: []string{"_site", "node_modules"}}
	assert.True(t, w.ignored("/proj/_site/index.html"))
	assert.True(t, w.ignored("/proj/node_modules"))
	assert.False(t, w.ignored("/proj/book/site/index.md"))
}

func TestRun_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := New([]string{dir}, 200*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f.md"), []byte{byte('a' + i)}, 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_IgnoredDirectoryDoesNotTrigger(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "_site")
	require.NoError(t, os.MkdirAll(site, 0o750))

	var calls atomic.Int32
	w, err := New([]string{dir}, 50*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithIgnore("_site"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(site, "index.html"), []byte("x"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
