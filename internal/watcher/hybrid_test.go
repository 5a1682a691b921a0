package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/blogsearch/internal/content"
)

func startHybrid(t *testing.T, root string, opts Options) *HybridWatcher {
	t.Helper()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	go func() { _ = w.Start(ctx, root) }()
	time.Sleep(150 * time.Millisecond)
	return w
}

func nextBatch(t *testing.T, w *HybridWatcher) []FileEvent {
	t.Helper()
	select {
	case events := <-w.Events():
		return events
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for events")
	}
	return nil
}

func TestHybridWatcher_FrontMatterEdit(t *testing.T) {
	for _, polling := range []bool{false, true} {
		t.Run(map[bool]string{false: "fsnotify", true: "polling"}[polling], func(t *testing.T) {
			// Given: a posts directory with one article
			root := t.TempDir()
			path := writeFrontMatter(t, root, "ml-primer", "Old")
			w := startHybrid(t, root, Options{
				DebounceWindow: 30 * time.Millisecond,
				PollInterval:   30 * time.Millisecond,
				ForcePolling:   polling,
			})

			// When: its front matter is rewritten
			require.NoError(t, os.WriteFile(path, []byte("title = \"Brand new and longer\"\n"), 0o644))

			// Then: one batch names the file
			events := nextBatch(t, w)
			var paths []string
			for _, e := range events {
				paths = append(paths, e.Path)
			}
			assert.Contains(t, paths, filepath.Join("ml-primer", content.FrontMatterFile))
		})
	}
}

func TestHybridWatcher_NewArticleDirectory(t *testing.T) {
	root := t.TempDir()
	w := startHybrid(t, root, Options{DebounceWindow: 30 * time.Millisecond})

	writeFrontMatter(t, root, "fresh", "Fresh")

	events := nextBatch(t, w)
	require.NotEmpty(t, events)
	assert.Equal(t, "fresh", events[0].Path)
}

func TestHybridWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()
	writeFrontMatter(t, root, "ml-primer", "T")
	w := startHybrid(t, root, Options{DebounceWindow: 30 * time.Millisecond})

	require.NoError(t, os.WriteFile(filepath.Join(root, "ml-primer", content.BodyFile), []byte("body"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.txt"), []byte("x"), 0o644))

	select {
	case events := <-w.Events():
		t.Fatalf("unexpected batch: %+v", events)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestHybridWatcher_Type(t *testing.T) {
	w, err := NewHybridWatcher(Options{ForcePolling: true})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Equal(t, "polling", w.WatcherType())
}

func TestHybridWatcher_MissingRoot(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	err = w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestHybridWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.Equal(t, uint64(0), w.DroppedBatches())
}
