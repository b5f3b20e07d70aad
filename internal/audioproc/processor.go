package audioproc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Karthik-Ragunath/screencap/internal/output"
	"github.com/Karthik-Ragunath/screencap/internal/transcribe"
)

// Instruction is the fixed prompt sent with every transcription request.
const Instruction = "Transcribe this audio verbatim. Preserve punctuation. Mark speaker changes if detectable. Return only the transcribed text."

const (
	extractTimeout = 60 * time.Second
	audioMimeType  = "audio/mpeg"
)

// Processor derives an audio-only artifact from a finished video and, when a
// transcription backend is configured, a transcript file next to it.
type Processor struct {
	backend transcribe.Backend // nil when transcription is not configured
	log     *output.Logger

	ffmpeg string
}

// NewProcessor builds a Processor. backend may be nil; extraction then runs
// without transcription.
func NewProcessor(backend transcribe.Backend, log *output.Logger) *Processor {
	return &Processor{backend: backend, log: log, ffmpeg: "ffmpeg"}
}

// Process extracts audio from videoPath and transcribes it. It never returns
// an error: transcription is an enhancement, and a failed extraction simply
// yields empty paths. Failures are logged.
func (p *Processor) Process(ctx context.Context, videoPath string) (audioPath, transcriptPath string) {
	audioPath, err := p.extractAudio(ctx, videoPath)
	if err != nil {
		p.log.Warnf("audio extraction failed for %s: %v", filepath.Base(videoPath), err)
		return "", ""
	}

	if p.backend == nil {
		return audioPath, ""
	}

	transcriptPath, err = p.transcribeAudio(ctx, videoPath, audioPath)
	if err != nil {
		p.log.Warnf("transcription failed for %s: %v", filepath.Base(audioPath), err)
		return audioPath, ""
	}
	return audioPath, transcriptPath
}

// extractAudio produces a stereo 44.1kHz mp3 sibling of the video.
func (p *Processor) extractAudio(ctx context.Context, videoPath string) (string, error) {
	out := siblingPath(videoPath, ".mp3")

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ffmpeg,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ac", "2",
		"-ar", "44100",
		"-b:a", "128k",
		out,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("ffmpeg: %w", err)
	}

	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		os.Remove(out)
		return "", fmt.Errorf("extraction produced no audio")
	}
	return out, nil
}

// transcribeAudio sends the extracted audio to the backend and writes the
// text, with a small provenance header, to a sibling file.
func (p *Processor) transcribeAudio(ctx context.Context, videoPath, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("reading audio: %w", err)
	}

	text, err := p.backend.Transcribe(ctx, audio, audioMimeType, Instruction)
	if err != nil {
		return "", err
	}

	out := siblingPath(videoPath, "_transcript.txt")
	content := fmt.Sprintf("Source: %s\nGenerated: %s\n\n%s\n",
		filepath.Base(videoPath), time.Now().Format(time.RFC3339), text)
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return out, nil
}

// siblingPath swaps a file's extension for the given suffix, keeping its stem
// and directory.
func siblingPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}
