package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) onChange(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, path)
}

func (r *recorder) onRemove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
}

func (r *recorder) snapshot() (changed, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changed...), append([]string(nil), r.removed...)
}

func count(list []string, path string) int {
	n := 0
	for _, p := range list {
		if p == path {
			n++
		}
	}
	return n
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

func startWatcher(t *testing.T, dir string, rec *recorder) *Watcher {
	t.Helper()
	w := NewWatcher([]string{dir}, isMarkdown, true, rec.onChange, rec.onRemove, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return w
}

func TestWatcher_DebounceAndMatch(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	md := filepath.Join(dir, "guide.md")
	txt := filepath.Join(dir, "notes.txt")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(md, []byte("# Guide\nrevision"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := os.WriteFile(txt, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		changed, _ := rec.snapshot()
		return count(changed, md) > 0
	})
	time.Sleep(250 * time.Millisecond)

	changed, _ := rec.snapshot()
	if n := count(changed, md); n != 1 {
		t.Errorf("onChange for %s called %d times, want 1 (debounced)", md, n)
	}
	if n := count(changed, txt); n != 0 {
		t.Errorf("onChange called for unmatched file %s", txt)
	}
}

func TestWatcher_Remove(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "old.md")
	if err := os.WriteFile(md, []byte("# Old"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	startWatcher(t, dir, rec)

	if err := os.Remove(md); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, removed := rec.snapshot()
		return count(removed, md) > 0
	})
}

func TestWatcher_RenameRemovesOldAndIndexesNew(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "draft.md")
	newPath := filepath.Join(dir, "final.md")
	if err := os.WriteFile(oldPath, []byte("# Draft"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	startWatcher(t, dir, rec)

	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		changed, removed := rec.snapshot()
		return count(removed, oldPath) > 0 && count(changed, newPath) > 0
	})
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to add the new directory before writing into it.
	time.Sleep(100 * time.Millisecond)
	md := filepath.Join(sub, "nested.md")
	if err := os.WriteFile(md, []byte("# Nested"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		changed, _ := rec.snapshot()
		return count(changed, md) > 0
	})
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, nil, true, nil, nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing root")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher([]string{dir}, nil, false, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
	if got := w.Directories(); len(got) != 1 || got[0] != dir {
		t.Errorf("Directories() = %v", got)
	}
}

func TestInDir(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "docs")
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a.md"), true},
		{filepath.Join(root, "sub", "b.md"), true},
		{root, true},
		{filepath.Join(string(filepath.Separator), "other", "a.md"), false},
		{filepath.Join(string(filepath.Separator), "docs-old", "a.md"), false},
	}
	for _, tt := range tests {
		if got := inDir(root, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", root, tt.path, got, tt.want)
		}
	}
}

func TestHidden(t *testing.T) {
	tests := map[string]bool{
		"/docs/.git":      true,
		"/docs/.draft.md": true,
		"/docs/guide.md":  false,
		".":               false,
	}
	for path, want := range tests {
		if got := hidden(path); got != want {
			t.Errorf("hidden(%q) = %v, want %v", path, got, want)
		}
	}
}
