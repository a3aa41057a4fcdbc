package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/storage"
)

// eventRecorder collects watcher callbacks for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) record(kind, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+path)
}

func (r *eventRecorder) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for _, e := range r.events {
			if e == want {
				r.mu.Unlock()
				return
			}
		}
		r.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Fatalf("event %q not observed; got %v", want, r.events)
}

func TestWatch_IndexesCreatedAndDeletedFiles(t *testing.T) {
	db := testDB(t)
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, db, store, testExtractor(), vaultDir, slog.Default(), rec.record)
	}()

	// Give the watcher a moment to register the root dir.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.waitFor(t, "created:new.md")

	got, err := db.GetDocument("new.md")
	if err != nil || got == nil {
		t.Fatalf("document not indexed: %v, %v", got, err)
	}

	if err := os.Remove(filepath.Join(vaultDir, "new.md")); err != nil {
		t.Fatal(err)
	}
	rec.waitFor(t, "deleted:new.md")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestWatch_IgnoresNonMarkdown(t *testing.T) {
	db := testDB(t)
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Watch(ctx, db, store, testExtractor(), vaultDir, slog.Default(), rec.record)
	}()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(vaultDir, "image.png"), []byte{0x89}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vaultDir, "post.md"), []byte("# P\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.waitFor(t, "created:post.md")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, e := range rec.events {
		if e == "created:image.png" {
			t.Error("non-markdown file triggered an index event")
		}
	}
}
