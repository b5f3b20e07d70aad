package upload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

// Queue ships finished artifacts to remote storage from a single background
// worker. Jobs live only in memory: anything still queued when the process
// dies is lost, and a failed upload is logged and dropped rather than
// retried. The local file stays authoritative either way.
type Queue struct {
	storage Storage
	prefix  string
	log     *output.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	jobs      []string
	closed    bool
	abandoned bool

	done chan struct{}
}

// NewQueue starts the background worker immediately.
func NewQueue(storage Storage, prefix string, log *output.Logger) *Queue {
	q := &Queue{
		storage: storage,
		prefix:  prefix,
		log:     log,
		done:    make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

// Enqueue adds a file to the upload queue. Paths that no longer exist or are
// empty are skipped with a log line; they may have raced a cleanup.
func (q *Queue) Enqueue(path string) {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		q.log.Warnf("skipping enqueue of missing or empty file: %s", path)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.log.Warnf("queue closed, dropping %s", filepath.Base(path))
		return
	}
	q.jobs = append(q.jobs, path)
	q.cond.Signal()
	q.log.Infof("queued %s (%.1f MB)", filepath.Base(path), float64(fi.Size())/1024.0/1024.0)
}

// Len reports how many jobs are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// DrainAndStop stops accepting new work and waits for the worker to empty
// the queue, up to maxWait. Jobs still queued when the budget expires are
// abandoned.
func (q *Queue) DrainAndStop(maxWait time.Duration) {
	q.mu.Lock()
	pending := len(q.jobs)
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	if pending > 0 {
		q.log.Infof("waiting for %d pending uploads", pending)
	}

	select {
	case <-q.done:
	case <-time.After(maxWait):
		q.mu.Lock()
		q.abandoned = true
		abandoned := len(q.jobs)
		q.cond.Broadcast()
		q.mu.Unlock()
		q.log.Warnf("drain budget expired, abandoning %d queued uploads", abandoned)
	}
}

func (q *Queue) worker() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.abandoned || len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		path := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		q.uploadOne(path)
	}
}

// uploadOne ships a single artifact. Failures are logged and the job is
// dropped without retry; the local copy stays authoritative.
func (q *Queue) uploadOne(path string) {
	f, err := os.Open(path)
	if err != nil {
		q.log.Errorf("opening %s: %v", path, err)
		return
	}
	defer f.Close()

	key := q.objectKey(path)
	if err := q.storage.Upload(context.Background(), key, f); err != nil {
		q.log.Errorf("upload failed, dropping %s: %v", filepath.Base(path), err)
		return
	}
	q.log.Donef("uploaded %s", key)
}

// objectKey derives {prefix}/{subfolder}/{filename}, inferring the artifact
// type from the file extension.
func (q *Queue) objectKey(path string) string {
	parts := []string{}
	if q.prefix != "" {
		parts = append(parts, q.prefix)
	}
	parts = append(parts, subfolderFor(path), filepath.Base(path))
	return strings.Join(parts, "/")
}

func subfolderFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".mkv", ".webm":
		return "video"
	case ".mp3", ".m4a", ".wav", ".aac":
		return "audio"
	case ".txt", ".md":
		return "transcript"
	default:
		return "other"
	}
}
