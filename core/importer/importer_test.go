package importer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"DanceDeck/model"
	"DanceDeck/repository"
)

type memStore struct {
	mu    sync.Mutex
	byURI map[string]*model.Video
}

func newMemStore() *memStore { return &memStore{byURI: map[string]*model.Video{}} }

func (m *memStore) FindByURI(ctx context.Context, uri string) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.byURI[uri]; ok {
		return v, nil
	}
	return nil, repository.ErrVideoNotFound
}

func (m *memStore) Create(ctx context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byURI[v.URI] = v
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byURI)
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIsVideoFile(t *testing.T) {
	for name, want := range map[string]bool{"a.mp4": true, "B.MOV": true, "c.webm": true, "notes.txt": false, "mp4": false} {
		if got := IsVideoFile(name); got != want {
			t.Errorf("IsVideoFile(%q) = %v", name, got)
		}
	}
}

func TestScanRegistersOnce(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "routine.mp4"))
	touch(t, filepath.Join(dir, "readme.txt"))

	store := newMemStore()
	im := New(dir, store, nil)
	n, err := im.Scan(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("scan = %d, %v", n, err)
	}
	if n, _ := im.Scan(context.Background()); n != 0 {
		t.Fatalf("rescan added %d", n)
	}

	abs, _ := filepath.Abs(filepath.Join(dir, "routine.mp4"))
	v, err := store.FindByURI(context.Background(), FileURI(abs))
	if err != nil {
		t.Fatal(err)
	}
	if v.Title != "routine" || v.SourceType != model.SourceLocal {
		t.Fatalf("video = %+v", v)
	}
}

func TestRunPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	store := newMemStore()
	im := New(dir, store, nil)
	im.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	imported := make(chan struct{}, 1)
	im.OnImport = func(*model.Video) { imported <- struct{}{} }
	go func() { done <- im.Run(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	touch(t, filepath.Join(dir, "new.mov"))

	select {
	case <-imported:
	case <-time.After(3 * time.Second):
		t.Fatal("file was not imported")
	}
	if store.count() != 1 {
		t.Fatalf("count = %d", store.count())
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
