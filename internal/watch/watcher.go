package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

// defaultSettle is how long a file's size must hold still before it is
// considered fully written.
const defaultSettle = 2 * time.Second

// Enqueuer accepts finished files for remote shipping.
type Enqueuer interface {
	Enqueue(path string)
}

// Watcher observes a directory and hands completed .mp4 files to the
// uploader. A file is completed when its size has been stable for a settle
// interval and it is not the newest video in the directory, since the
// newest one may still be receiving encoder output. On shutdown everything
// still pending, including the newest file, is enqueued.
type Watcher struct {
	dir      string
	settle   time.Duration
	uploader Enqueuer
	log      *output.Logger

	sizes map[string]int64 // last observed size per pending file
	sent  map[string]bool
}

func NewWatcher(dir string, uploader Enqueuer, log *output.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		settle:   defaultSettle,
		uploader: uploader,
		log:      log,
		sizes:    make(map[string]int64),
		sent:     make(map[string]bool),
	}
}

// Run watches until ctx is cancelled. Files already present at startup are
// treated as pending so a watcher started late still ships everything.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.scanExisting()

	ticker := time.NewTicker(w.settle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flushPending()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				w.flushPending()
				return nil
			}
			if !isVideo(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				if !w.sent[event.Name] {
					if _, pending := w.sizes[event.Name]; !pending {
						w.sizes[event.Name] = -1
					}
				}
			}

		case <-ticker.C:
			w.sweep()

		case _, ok := <-fw.Errors:
			if !ok {
				w.flushPending()
				return nil
			}
			// Watcher errors are non-fatal; keep sweeping.
		}
	}
}

// scanExisting seeds the pending set with videos already in the directory.
func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isVideo(e.Name()) {
			continue
		}
		w.sizes[filepath.Join(w.dir, e.Name())] = -1
	}
}

// sweep enqueues every pending file whose size held still since the last
// tick, except the newest video in the directory.
func (w *Watcher) sweep() {
	newest := w.newestVideo()
	for path, lastSize := range w.sizes {
		fi, err := os.Stat(path)
		if err != nil {
			delete(w.sizes, path)
			continue
		}
		if fi.Size() != lastSize || fi.Size() == 0 {
			w.sizes[path] = fi.Size()
			continue
		}
		if path == newest {
			continue
		}
		w.send(path)
	}
}

// flushPending ships everything left, newest file included. Called once on
// shutdown, when no more writes can arrive.
func (w *Watcher) flushPending() {
	for path := range w.sizes {
		if _, err := os.Stat(path); err != nil {
			delete(w.sizes, path)
			continue
		}
		w.send(path)
	}
}

func (w *Watcher) send(path string) {
	delete(w.sizes, path)
	w.sent[path] = true
	w.log.Infof("shipping %s", filepath.Base(path))
	w.uploader.Enqueue(path)
}

// newestVideo returns the video with the latest modification time, or ""
// when the directory holds none.
func (w *Watcher) newestVideo() string {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return ""
	}
	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !isVideo(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(w.dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}

func isVideo(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".mp4")
}
