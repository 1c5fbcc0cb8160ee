package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// startWatcher watches path and runs the watcher until the test ends.
func startWatcher(t *testing.T, path string) *Watcher {
	t.Helper()

	w, err := New(testLogger(), Options{SettleDelay: 50 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Watch(path))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Stop()
	})
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case event, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestNew(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatcher_Watch_CreatesDirectory(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, w.Watch(filepath.Join(dir, "tags.txt")))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWatcher_FileWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.txt")
	w := startWatcher(t, path)

	content := []byte("document")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	event := waitEvent(t, w)
	assert.Equal(t, EventModified, event.Type)
	assert.Equal(t, path, event.Path)
	assert.Equal(t, int64(len(content)), event.Size)
	assert.False(t, event.ModTime.IsZero())
}

func TestWatcher_AtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	w := startWatcher(t, path)

	tmp := filepath.Join(filepath.Dir(path), ".tags.txt.tmp-1")
	require.NoError(t, os.WriteFile(tmp, []byte("replacement"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	event := waitEvent(t, w)
	assert.Equal(t, EventModified, event.Type)
	assert.Equal(t, path, event.Path)
	assert.Equal(t, int64(len("replacement")), event.Size)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.txt")
	w := startWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("y"), 0o644))

	event := waitEvent(t, w)
	assert.Equal(t, path, event.Path)
}

func TestWatcher_FileRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.txt")
	require.NoError(t, os.WriteFile(path, []byte("document"), 0o644))
	w := startWatcher(t, path)

	require.NoError(t, os.Remove(path))

	event := waitEvent(t, w)
	assert.Equal(t, EventRemoved, event.Type)
	assert.Equal(t, path, event.Path)
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)
	require.NoError(t, w.Watch(filepath.Join(t.TempDir(), "tags.txt")))

	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
}
