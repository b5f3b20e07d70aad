package capture

import (
	"io"
	"testing"
	"time"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

// fakeBuilder substitutes an arbitrary command for the encoder so driver
// behavior can be tested without ffmpeg.
type fakeBuilder struct {
	name string
	args []string
}

func (f fakeBuilder) Command(outputPath string, p Params) (string, []string) {
	return f.name, f.args
}

func testLogger() *output.Logger {
	return output.NewLogger(io.Discard, "capture")
}

func TestCaptureSegmentCompletedNormally(t *testing.T) {
	d := NewDriver(fakeBuilder{name: "true"}, testParams(), testLogger())

	completed, err := d.CaptureSegment("/dev/null")
	if err != nil {
		t.Fatalf("CaptureSegment: %v", err)
	}
	if !completed {
		t.Fatalf("expected completed=true for clean exit")
	}
	if d.running() {
		t.Fatalf("no process should remain after capture")
	}
}

func TestCaptureSegmentNonzeroExit(t *testing.T) {
	d := NewDriver(fakeBuilder{name: "false"}, testParams(), testLogger())

	completed, err := d.CaptureSegment("/dev/null")
	if err != nil {
		t.Fatalf("nonzero exit must not be an error, got: %v", err)
	}
	if completed {
		t.Fatalf("expected completed=false for nonzero exit")
	}
}

func TestCaptureSegmentSpawnFailure(t *testing.T) {
	d := NewDriver(fakeBuilder{name: "screencap-no-such-binary"}, testParams(), testLogger())

	if _, err := d.CaptureSegment("/dev/null"); err == nil {
		t.Fatalf("expected spawn error for missing binary")
	}
}

func TestStopInterruptsInFlightSegment(t *testing.T) {
	d := NewDriver(fakeBuilder{name: "sleep", args: []string{"30"}}, testParams(), testLogger())

	result := make(chan bool, 1)
	go func() {
		completed, err := d.CaptureSegment("/dev/null")
		if err != nil {
			t.Errorf("CaptureSegment: %v", err)
		}
		result <- completed
	}()

	// Wait for the process to come up before stopping it.
	deadline := time.Now().Add(5 * time.Second)
	for !d.running() {
		if time.Now().After(deadline) {
			t.Fatalf("process never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	start := time.Now()
	d.Stop()

	select {
	case completed := <-result:
		if completed {
			t.Fatalf("an interrupted segment must not report normal completion")
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("capture did not return after Stop")
	}

	if elapsed := time.Since(start); elapsed > interruptGrace {
		t.Fatalf("stop took %s, expected the interrupt tier to land", elapsed)
	}
}

func TestStopBeforeSpawnStillInterrupts(t *testing.T) {
	d := NewDriver(fakeBuilder{name: "sleep", args: []string{"30"}}, testParams(), testLogger())

	// Stop lands between segments; the next spawn must still be cut short.
	d.Stop()

	done := make(chan struct{})
	go func() {
		_, _ = d.CaptureSegment("/dev/null")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("segment spawned after Stop was never interrupted")
	}
}

func TestStopWithNoProcessReturns(t *testing.T) {
	d := NewDriver(fakeBuilder{name: "true"}, testParams(), testLogger())
	d.Stop() // must not block or panic
}
