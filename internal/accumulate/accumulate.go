package accumulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

// Merge budget: generous base plus headroom per input, since a stream-copy
// concat scales with total session length.
const (
	mergeBaseTimeout       = 2 * time.Minute
	mergePerSegmentTimeout = 30 * time.Second
)

// Artifact is one accumulation snapshot: all session segments so far merged
// into a single playable file.
type Artifact struct {
	Path        string
	SourceCount int
}

// Engine merges the ordered segment list of a session into one growing
// output file. Every call produces a freshly numbered file and never touches
// prior snapshots, so "the latest" is always the highest generation, and
// older snapshots stay independently retrievable.
//
// Each call re-merges the full list; over a long session the total merge
// work is quadratic in segment count. That trade buys the guarantee that a
// complete, freshly written artifact exists after every segment.
type Engine struct {
	outputDir string
	sessionID string
	log       *output.Logger

	generation atomic.Int64
}

func NewEngine(outputDir, sessionID string, log *output.Logger) *Engine {
	return &Engine{outputDir: outputDir, sessionID: sessionID, log: log}
}

// Regenerate merges segmentPaths, in order, into a new accumulated file.
// Zero segments yields (nil, nil). One segment is copied verbatim rather
// than run through the merge tool. Two or more are concatenated with a
// stream copy (no re-encode) driven by an ordered manifest that is removed
// afterwards, success or failure.
func (e *Engine) Regenerate(segmentPaths []string) (*Artifact, error) {
	if len(segmentPaths) == 0 {
		return nil, nil
	}

	gen := e.generation.Add(1)
	dest := filepath.Join(e.outputDir, fmt.Sprintf("capture_%s_acc_%03d.mp4", e.sessionID, gen))

	if len(segmentPaths) == 1 {
		if err := copyFile(segmentPaths[0], dest); err != nil {
			return nil, fmt.Errorf("copying single segment: %w", err)
		}
		return &Artifact{Path: dest, SourceCount: 1}, nil
	}

	manifest := filepath.Join(e.outputDir, fmt.Sprintf("concat_%s.txt", uuid.NewString()))
	if err := writeManifest(manifest, segmentPaths); err != nil {
		return nil, fmt.Errorf("writing concat manifest: %w", err)
	}
	defer os.Remove(manifest)

	timeout := mergeBaseTimeout + time.Duration(len(segmentPaths))*mergePerSegmentTimeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		dest,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("merging %d segments: %w", len(segmentPaths), err)
	}

	e.log.Infof("accumulated %d segments into %s", len(segmentPaths), filepath.Base(dest))
	return &Artifact{Path: dest, SourceCount: len(segmentPaths)}, nil
}

// writeManifest emits the concat demuxer's input list, one absolute path per
// line. Single quotes inside paths are escaped the way the demuxer expects.
func writeManifest(path string, segmentPaths []string) error {
	var b strings.Builder
	for _, p := range segmentPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
