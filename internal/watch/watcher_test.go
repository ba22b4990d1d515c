package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/jsflow/pkg/config"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, DefaultDebounce},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, DefaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tmpDir, nil, nil, WithDebounce(tt.debounce))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer w.Stop()

			if w.config == nil {
				t.Error("config should default")
			}
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
		})
	}
}

func TestAddTreeSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"src/lib", "node_modules/pkg", "dist"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New(root, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.addTree(root); err != nil {
		t.Fatalf("addTree() error = %v", err)
	}
	dirs := w.WatchedDirs()
	for _, want := range []string{root, filepath.Join(root, "src"), filepath.Join(root, "src", "lib")} {
		if !slices.Contains(dirs, want) {
			t.Errorf("WatchedDirs() missing %s: %v", want, dirs)
		}
	}
	for _, skip := range []string{filepath.Join(root, "node_modules"), filepath.Join(root, "dist")} {
		if slices.Contains(dirs, skip) {
			t.Errorf("WatchedDirs() should skip %s", skip)
		}
	}
}

func TestHandleEvent(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tests := []struct {
		name        string
		event       fsnotify.Event
		wantPending bool
	}{
		{"write js", fsnotify.Event{Name: filepath.Join(root, "a.js"), Op: fsnotify.Write}, true},
		{"create ts", fsnotify.Event{Name: filepath.Join(root, "b.ts"), Op: fsnotify.Create}, true},
		{"remove ignored", fsnotify.Event{Name: filepath.Join(root, "c.js"), Op: fsnotify.Remove}, false},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(root, "d.js"), Op: fsnotify.Chmod}, false},
		{"unsupported ignored", fsnotify.Event{Name: filepath.Join(root, "e.md"), Op: fsnotify.Write}, false},
		{"minified ignored", fsnotify.Event{Name: filepath.Join(root, "f.min.js"), Op: fsnotify.Write}, false},
		{"excluded dir ignored", fsnotify.Event{Name: filepath.Join(root, "node_modules", "g.js"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.handleEvent(tt.event)
			w.mu.Lock()
			_, ok := w.pending[tt.event.Name]
			w.mu.Unlock()
			if ok != tt.wantPending {
				t.Errorf("pending = %v, want %v", ok, tt.wantPending)
			}
		})
	}
}

func TestHandleEventNewDirectory(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	dir := filepath.Join(root, "pkg")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	w.handleEvent(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	if !slices.Contains(w.WatchedDirs(), dir) {
		t.Errorf("new directory not watched: %v", w.WatchedDirs())
	}
}

func TestTakeReady(t *testing.T) {
	w, err := New(t.TempDir(), nil, nil, WithDebounce(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	now := time.Now()
	w.pending["/b.js"] = now.Add(-2 * time.Second)
	w.pending["/a.js"] = now.Add(-time.Second)
	w.pending["/c.js"] = now

	ready := w.takeReady(now)
	if !slices.Equal(ready, []string{"/a.js", "/b.js"}) {
		t.Errorf("takeReady() = %v", ready)
	}
	if len(w.pending) != 1 {
		t.Errorf("pending = %v, want only /c.js", w.pending)
	}
	if got := w.takeReady(now); len(got) != 0 {
		t.Errorf("second takeReady() = %v", got)
	}
}

func TestStartRunsCallback(t *testing.T) {
	root := t.TempDir()
	changed := make(chan []string, 1)

	w, err := New(root, nil, func(_ context.Context, paths []string) {
		select {
		case changed <- paths:
		default:
		}
	}, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	file := filepath.Join(root, "app.js")
	deadline := time.After(4 * time.Second)
	for {
		// Keep writing until the watcher has registered the directory.
		if err := os.WriteFile(file, []byte("a();\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case paths := <-changed:
			if len(paths) != 1 || paths[0] != file {
				t.Errorf("callback paths = %v", paths)
			}
			cancel()
			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Errorf("Start() error = %v, want context.Canceled", err)
			}
			return
		case <-deadline:
			t.Fatal("callback not called")
		case <-time.After(100 * time.Millisecond):
		}
	}
}
