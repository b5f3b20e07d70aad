package capture

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

// Escalation timing for early stop. The interrupt step lets ffmpeg write the
// container trailer; skipping it risks an unplayable final segment.
const (
	interruptGrace = 5 * time.Second
	terminateGrace = 3 * time.Second
)

// Driver spawns and supervises one encoder process per segment. A Driver is
// session-scoped: once Stop has been called it will not let another segment
// run to its full duration.
type Driver struct {
	builder CommandBuilder
	params  Params
	log     *output.Logger

	stopRequested atomic.Bool

	mu     sync.Mutex
	proc   *os.Process
	exited chan struct{}
}

func NewDriver(builder CommandBuilder, params Params, log *output.Logger) *Driver {
	return &Driver{builder: builder, params: params, log: log}
}

// CheckEncoder verifies the encoder binary is installed. Called before a
// session starts so a missing binary surfaces as a start failure instead of
// a silent per-segment loop.
func CheckEncoder() error {
	if _, err := exec.LookPath(ffmpegBinary); err != nil {
		return fmt.Errorf("ffmpeg not found. Install with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)")
	}
	return nil
}

// CaptureSegment records one segment to outputPath, blocking until the
// encoder exits. It returns completed=true when the process exited cleanly
// (duration limit reached). A non-nil error means the process could not even
// be spawned; a nonzero exit is completed=false with a nil error, and the
// caller decides whether the partial file is worth keeping.
func (d *Driver) CaptureSegment(outputPath string) (bool, error) {
	name, args := d.builder.Command(outputPath, d.params)
	cmd := exec.Command(name, args...)

	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("starting encoder: %w", err)
	}

	exited := make(chan struct{})
	d.mu.Lock()
	d.proc = cmd.Process
	d.exited = exited
	d.mu.Unlock()

	// A stop that raced the spawn would have found no process to signal.
	if d.stopRequested.Load() {
		go d.escalate(cmd.Process, exited)
	}

	err := cmd.Wait()
	close(exited)

	d.mu.Lock()
	d.proc = nil
	d.exited = nil
	d.mu.Unlock()

	if err != nil {
		d.log.Warnf("encoder exited with error: %v", err)
		return false, nil
	}
	return true, nil
}

// Stop ends the in-flight segment, if any, and marks the driver so no later
// segment outlives the request. It returns once the current process has
// exited (or immediately when none is running).
func (d *Driver) Stop() {
	d.stopRequested.Store(true)

	d.mu.Lock()
	proc, exited := d.proc, d.exited
	d.mu.Unlock()

	if proc == nil {
		return
	}
	d.escalate(proc, exited)
}

// escalate signals interrupt first, then terminate, then kill, giving the
// encoder a chance to finalize the file trailer before force is used.
func (d *Driver) escalate(proc *os.Process, exited chan struct{}) {
	if err := proc.Signal(os.Interrupt); err == nil {
		select {
		case <-exited:
			d.log.Infof("segment finalized cleanly")
			return
		case <-time.After(interruptGrace):
			d.log.Warnf("encoder ignored interrupt, terminating")
		}
	}

	if err := proc.Signal(syscall.SIGTERM); err == nil {
		select {
		case <-exited:
			return
		case <-time.After(terminateGrace):
			d.log.Warnf("encoder ignored terminate, killing")
		}
	}

	_ = proc.Kill()
	<-exited
}

// running reports whether an encoder process is currently in flight.
func (d *Driver) running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.proc != nil
}
