package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingEnqueuer) Enqueue(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingEnqueuer) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	for i, p := range r.paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func writeVideo(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("mp4 payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}
	return path
}

func testWatcher(dir string, enq Enqueuer) *Watcher {
	w := NewWatcher(dir, enq, output.NewLogger(io.Discard, "watch"))
	w.settle = 10 * time.Millisecond
	return w
}

func TestSweepShipsStableFilesButNotNewest(t *testing.T) {
	dir := t.TempDir()
	old := writeVideo(t, dir, "capture_a.mp4", time.Hour)
	writeVideo(t, dir, "capture_b.mp4", 0)

	enq := &recordingEnqueuer{}
	w := testWatcher(dir, enq)
	w.scanExisting()

	w.sweep() // first pass only records sizes
	if got := enq.names(); len(got) != 0 {
		t.Fatalf("nothing is size-stable yet, got %v", got)
	}

	w.sweep() // sizes unchanged: older file ships, newest held back
	got := enq.names()
	if len(got) != 1 || got[0] != filepath.Base(old) {
		t.Fatalf("expected only the older file shipped, got %v", got)
	}
}

func TestSweepWaitsForGrowingFile(t *testing.T) {
	dir := t.TempDir()
	growing := writeVideo(t, dir, "capture_a.mp4", time.Hour)
	writeVideo(t, dir, "capture_b.mp4", 0)

	enq := &recordingEnqueuer{}
	w := testWatcher(dir, enq)
	w.scanExisting()

	w.sweep()
	if err := os.WriteFile(growing, []byte("mp4 payload plus more"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(growing, past, past); err != nil {
		t.Fatal(err)
	}
	w.sweep() // size changed between passes: not stable, do not ship
	if got := enq.names(); len(got) != 0 {
		t.Fatalf("growing file must not ship, got %v", got)
	}

	w.sweep() // now stable
	if got := enq.names(); len(got) != 1 {
		t.Fatalf("stable file should ship, got %v", got)
	}
}

func TestFlushShipsEverythingIncludingNewest(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "capture_a.mp4", time.Hour)
	writeVideo(t, dir, "capture_b.mp4", 0)

	enq := &recordingEnqueuer{}
	w := testWatcher(dir, enq)
	w.scanExisting()
	w.flushPending()

	if got := enq.names(); len(got) != 2 {
		t.Fatalf("shutdown flush must ship all pending files, got %v", got)
	}
}

func TestNonVideoFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "capture_a.mp4", time.Hour)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	enq := &recordingEnqueuer{}
	w := testWatcher(dir, enq)
	w.scanExisting()
	w.flushPending()

	got := enq.names()
	if len(got) != 1 || got[0] != "capture_a.mp4" {
		t.Fatalf("only videos should ship, got %v", got)
	}
}

func TestShippedFileNotResent(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "capture_a.mp4", time.Hour)
	writeVideo(t, dir, "capture_b.mp4", 0)

	enq := &recordingEnqueuer{}
	w := testWatcher(dir, enq)
	w.scanExisting()
	w.sweep()
	w.sweep()
	w.sweep()
	w.flushPending()

	seen := make(map[string]int)
	for _, n := range enq.names() {
		seen[n]++
	}
	for n, count := range seen {
		if count != 1 {
			t.Fatalf("%s shipped %d times", n, count)
		}
	}
}

func TestRunPicksUpCreatedFiles(t *testing.T) {
	dir := t.TempDir()
	enq := &recordingEnqueuer{}
	w := testWatcher(dir, enq)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- w.Run(ctx) }()

	// Give the watcher a moment to register before creating files.
	time.Sleep(50 * time.Millisecond)
	writeVideo(t, dir, "capture_a.mp4", time.Hour)
	writeVideo(t, dir, "capture_b.mp4", 0)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if names := enq.names(); len(names) >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the first file to ship")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-runDone; err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Shutdown flush ships the newest file too.
	names := enq.names()
	if len(names) != 2 {
		t.Fatalf("expected both files shipped after shutdown, got %v", names)
	}
}
