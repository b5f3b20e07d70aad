package session

import (
	"time"

	"github.com/Karthik-Ragunath/screencap/internal/capture"
)

// State is the session lifecycle position. Transitions go strictly
// Idle → Recording → Stopping → Stopped; a later Start reuses the
// controller from Stopped.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config describes one capture session.
type Config struct {
	OutputDir      string
	SegmentSeconds int
	FrameRate      int
	Quality        capture.Quality
	AudioDevice    string
	ScreenIndex    int
	Accumulate     bool
}

// Session is one recording run, owned exclusively by the Controller.
type Session struct {
	ID        string // start timestamp, 20060102_150405
	Config    Config
	StartedAt time.Time
}

// Segment is one finished fixed-duration capture unit. Segments are appended
// to the session's list only after the encoder exited and the file passed
// the size sanity check; the list is append-only.
type Segment struct {
	Seq       int
	Path      string
	CreatedAt time.Time
	SizeBytes int64
}

// Artifact is a produced file as reported by List.
type Artifact struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
}

// Status is the operator-visible snapshot of the controller.
type Status struct {
	Recording       bool
	SessionID       string
	State           State
	SegmentCount    int
	CurrentArtifact string
}
