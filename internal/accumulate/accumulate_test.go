package accumulate

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

func testEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	return NewEngine(dir, "20260826_120000", output.NewLogger(io.Discard, "accumulate")), dir
}

func writeSegment(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing segment: %v", err)
	}
	return path
}

func TestRegenerateEmptyList(t *testing.T) {
	e, _ := testEngine(t)

	art, err := e.Regenerate(nil)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if art != nil {
		t.Fatalf("expected nil artifact for empty segment list, got %+v", art)
	}
}

func TestRegenerateSingleSegmentIsVerbatimCopy(t *testing.T) {
	e, dir := testEngine(t)
	src := writeSegment(t, dir, "capture_000.mp4", "fake segment bytes")

	art, err := e.Regenerate([]string{src})
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if art == nil || art.SourceCount != 1 {
		t.Fatalf("expected artifact with SourceCount=1, got %+v", art)
	}

	got, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(got) != "fake segment bytes" {
		t.Fatalf("single-segment output is not a verbatim copy")
	}

	srcInfo, _ := os.Stat(src)
	dstInfo, _ := os.Stat(art.Path)
	if srcInfo.Size() != dstInfo.Size() {
		t.Fatalf("size mismatch: src %d, dest %d", srcInfo.Size(), dstInfo.Size())
	}
}

func TestRegenerateProducesFreshNames(t *testing.T) {
	e, dir := testEngine(t)
	src := writeSegment(t, dir, "capture_000.mp4", "bytes")

	first, err := e.Regenerate([]string{src})
	if err != nil {
		t.Fatalf("first Regenerate: %v", err)
	}
	second, err := e.Regenerate([]string{src})
	if err != nil {
		t.Fatalf("second Regenerate: %v", err)
	}

	if first.Path == second.Path {
		t.Fatalf("regeneration must never overwrite a prior snapshot, both wrote %s", first.Path)
	}
	if _, err := os.Stat(first.Path); err != nil {
		t.Fatalf("first snapshot was superseded, not kept: %v", err)
	}
}

func TestRegenerateMissingSourceFails(t *testing.T) {
	e, dir := testEngine(t)

	if _, err := e.Regenerate([]string{filepath.Join(dir, "gone.mp4")}); err == nil {
		t.Fatalf("expected error for missing source segment")
	}
}

func TestWriteManifestOrderAndEscaping(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "concat.txt")
	segs := []string{
		filepath.Join(dir, "b_second.mp4"),
		filepath.Join(dir, "a_first.mp4"),
		filepath.Join(dir, "it's.mp4"),
	}

	if err := writeManifest(manifest, segs); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}

	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected 3 manifest lines, got %d", len(lines))
	}
	// Capture order is preserved, never sorted.
	if !strings.Contains(lines[0], "b_second.mp4") || !strings.Contains(lines[1], "a_first.mp4") {
		t.Fatalf("manifest does not preserve capture order: %v", lines)
	}
	if !strings.Contains(lines[2], `it'\''s.mp4`) {
		t.Fatalf("single quote not escaped for concat demuxer: %q", lines[2])
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "file '") {
			t.Fatalf("malformed manifest line %q", line)
		}
	}
}
