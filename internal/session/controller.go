package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Karthik-Ragunath/screencap/internal/accumulate"
	"github.com/Karthik-Ragunath/screencap/internal/output"
)

// Conflict errors for invalid lifecycle requests. They report user error; no
// state changes.
var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// minSegmentBytes rejects truncated or zero-byte files left behind by an
// encoder that died right after spawn.
const minSegmentBytes = 1000

// failureBackoff paces the loop when the encoder keeps failing, so a broken
// input selector does not spin.
const failureBackoff = time.Second

// SegmentCapturer runs one encoder process per call and can cut the
// in-flight one short.
type SegmentCapturer interface {
	CaptureSegment(outputPath string) (completed bool, err error)
	Stop()
}

// Accumulator re-merges the session's segment list into a growing artifact.
type Accumulator interface {
	Regenerate(segmentPaths []string) (*accumulate.Artifact, error)
}

// ArtifactProcessor derives audio and transcript siblings from a video.
type ArtifactProcessor interface {
	Process(ctx context.Context, videoPath string) (audioPath, transcriptPath string)
}

// Enqueuer accepts finished artifacts for remote shipping.
type Enqueuer interface {
	Enqueue(path string)
}

// Deps wires the controller to its collaborators. NewDriver and NewEngine
// are factories because both are session-scoped.
type Deps struct {
	NewDriver func(cfg Config) (SegmentCapturer, error)
	NewEngine func(outputDir, sessionID string) Accumulator
	Processor ArtifactProcessor
	Uploader  Enqueuer // nil when no remote storage is configured
	Log       *output.Logger
	Now       func() time.Time // defaults to time.Now
}

// Controller owns the session lifecycle. It is the single owner of all
// mutable capture state; concurrent Start/Stop/Status calls are arbitrated
// by compare-and-swap transitions on the state word, never by separately
// checked flags.
type Controller struct {
	deps  Deps
	state atomic.Int32

	mu              sync.Mutex
	uploader        Enqueuer
	sess            *Session
	segments        []Segment
	currentArtifact string

	driver SegmentCapturer
	engine Accumulator

	loopDone chan struct{}
	fanOuts  sync.WaitGroup
}

func NewController(deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{deps: deps, uploader: deps.Uploader}
}

// SetUploader swaps the upload sink before a session starts. It is how the
// operator opts out of remote shipping for a single run.
func (c *Controller) SetUploader(u Enqueuer) {
	c.mu.Lock()
	c.uploader = u
	c.mu.Unlock()
}

// Start begins a new session and returns once the capture loop is running.
// A Start while a session is active is a conflict; a failure to set up the
// capture driver restores Idle and surfaces the reason.
func (c *Controller) Start(cfg Config) (*Session, error) {
	if !c.transition(StateIdle, StateRecording) && !c.transition(StateStopped, StateRecording) {
		return nil, ErrAlreadyRecording
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		c.state.Store(int32(StateIdle))
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	driver, err := c.deps.NewDriver(cfg)
	if err != nil {
		c.state.Store(int32(StateIdle))
		return nil, fmt.Errorf("starting capture: %w", err)
	}

	now := c.deps.Now()
	sess := &Session{
		ID:        now.Format("20060102_150405"),
		Config:    cfg,
		StartedAt: now,
	}

	c.mu.Lock()
	c.sess = sess
	c.segments = nil
	c.currentArtifact = ""
	c.driver = driver
	c.engine = nil
	if cfg.Accumulate {
		c.engine = c.deps.NewEngine(cfg.OutputDir, sess.ID)
	}
	done := make(chan struct{})
	c.loopDone = done
	c.mu.Unlock()

	go c.captureLoop(sess, driver, done)

	c.deps.Log.Infof("session %s started: %ds segments, quality %s, accumulate=%v",
		sess.ID, cfg.SegmentSeconds, cfg.Quality, cfg.Accumulate)
	return sess, nil
}

// Stop requests a clean end of the active session. The in-flight segment is
// cut short via the driver's escalation; the loop performs one final fan-out
// pass before the state lands on Stopped. Already-dispatched accumulation,
// extraction, and uploads are left to finish on their own.
func (c *Controller) Stop() error {
	if !c.transition(StateRecording, StateStopping) {
		return ErrNotRecording
	}

	c.mu.Lock()
	driver := c.driver
	done := c.loopDone
	c.mu.Unlock()

	driver.Stop()
	<-done

	c.deps.Log.Infof("session stopped after %d segments", c.Status().SegmentCount)
	return nil
}

// DrainProcessing waits up to maxWait for dispatched audio fan-outs to
// finish. Uploads are drained separately by the queue's own budget.
func (c *Controller) DrainProcessing(maxWait time.Duration) {
	done := make(chan struct{})
	go func() {
		c.fanOuts.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(maxWait):
		c.deps.Log.Warnf("audio processing still running after %s, leaving it behind", maxWait)
	}
}

// Status reports the operator-visible snapshot. The current artifact is the
// most recent successfully produced one: the latest accumulation when in
// accumulate mode and it has succeeded at least once, otherwise the latest
// raw segment.
func (c *Controller) Status() Status {
	state := State(c.state.Load())

	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		Recording:       state == StateRecording || state == StateStopping,
		State:           state,
		SegmentCount:    len(c.segments),
		CurrentArtifact: c.currentArtifact,
	}
	if c.sess != nil {
		st.SessionID = c.sess.ID
	}
	return st
}

// List returns the most recent n artifacts in the output directory by
// modification time, newest first.
func (c *Controller) List(dir string, n int) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading output directory: %w", err)
	}

	var artifacts []Artifact
	for _, e := range entries {
		if e.IsDir() || !isArtifact(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name:     e.Name(),
			Path:     filepath.Join(dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Modified.After(artifacts[j].Modified)
	})
	if n > 0 && len(artifacts) > n {
		artifacts = artifacts[:n]
	}
	return artifacts, nil
}

func isArtifact(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mp3", ".txt":
		return true
	}
	return false
}

// transition atomically swaps the lifecycle state.
func (c *Controller) transition(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// captureLoop drives the encoder one segment at a time. It is intentionally
// sequential: two encoder processes cannot share the same display and audio
// input, so segment N+1 waits for N's process to exit and its fan-out to be
// dispatched.
func (c *Controller) captureLoop(sess *Session, driver SegmentCapturer, done chan struct{}) {
	defer func() {
		c.state.Store(int32(StateStopped))
		close(done)
	}()

	for fileSeq := 0; ; fileSeq++ {
		if State(c.state.Load()) != StateRecording {
			return
		}

		outPath := filepath.Join(sess.Config.OutputDir,
			fmt.Sprintf("capture_%s_%03d.mp4", sess.ID, fileSeq))

		completed, err := driver.CaptureSegment(outPath)
		stopping := State(c.state.Load()) == StateStopping

		if err != nil {
			// Spawn failures mid-session stay segment-local: log, pace,
			// and try again. The session's value is best-effort continuity.
			c.deps.Log.Errorf("segment %d failed to start: %v", fileSeq, err)
			if stopping {
				return
			}
			time.Sleep(failureBackoff)
			continue
		}

		fi, statErr := os.Stat(outPath)
		if statErr != nil || fi.Size() <= minSegmentBytes {
			if statErr == nil {
				os.Remove(outPath)
			}
			c.deps.Log.Warnf("segment %d discarded (undersized or missing, completed=%v)", fileSeq, completed)
			if stopping {
				return
			}
			continue
		}

		// The partial file from an interrupted encoder passed the size
		// check, so it is kept and fanned out like any other segment.
		c.finishSegment(outPath, fi.Size())

		if stopping {
			return
		}
	}
}

// finishSegment appends the segment to the session list, runs accumulation
// on a consistent snapshot, records the current artifact, and dispatches the
// audio/upload fan-out without blocking the next capture.
func (c *Controller) finishSegment(path string, size int64) {
	c.mu.Lock()
	seg := Segment{
		Seq:       len(c.segments),
		Path:      path,
		CreatedAt: c.deps.Now(),
		SizeBytes: size,
	}
	c.segments = append(c.segments, seg)
	snapshot := make([]string, len(c.segments))
	for i, s := range c.segments {
		snapshot[i] = s.Path
	}
	engine := c.engine
	c.mu.Unlock()

	c.deps.Log.Donef("segment %d complete: %s (%.1f MB)", seg.Seq, filepath.Base(path), float64(size)/1024.0/1024.0)

	artifact := path
	if engine != nil {
		merged, err := engine.Regenerate(snapshot)
		switch {
		case err != nil:
			// Accumulation skipped this round; the raw segment remains the
			// session's current video.
			c.deps.Log.Warnf("accumulation failed, keeping raw segment: %v", err)
		case merged != nil:
			artifact = merged.Path
		}
	}

	c.mu.Lock()
	c.currentArtifact = artifact
	c.mu.Unlock()

	c.fanOut(artifact)
}

// fanOut ships the finished unit. The video is enqueued immediately; audio
// extraction and transcription run in their own goroutine so the capture
// loop can spawn the next segment without waiting on a network call.
func (c *Controller) fanOut(videoPath string) {
	c.mu.Lock()
	uploader := c.uploader
	c.mu.Unlock()

	if uploader != nil {
		uploader.Enqueue(videoPath)
	}

	c.fanOuts.Add(1)
	go func() {
		defer c.fanOuts.Done()
		audioPath, transcriptPath := c.deps.Processor.Process(context.Background(), videoPath)
		if uploader == nil {
			return
		}
		if audioPath != "" {
			uploader.Enqueue(audioPath)
		}
		if transcriptPath != "" {
			uploader.Enqueue(transcriptPath)
		}
	}()
}
