package capture

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const ffmpegBinary = "ffmpeg"

// Inputs selects the capture sources handed to the encoder.
type Inputs struct {
	ScreenIndex int
	AudioDevice string
}

// Params holds the per-segment encoding parameters.
type Params struct {
	Duration  time.Duration
	FrameRate int
	Quality   Quality
	Inputs    Inputs
}

// CommandBuilder builds the one-shot encoder invocation for a segment.
// Each operating system needs its own input recipe; the encoding tail is
// shared.
type CommandBuilder interface {
	Command(outputPath string, p Params) (name string, args []string)
}

// NewCommandBuilder picks the builder for the current platform.
func NewCommandBuilder() (CommandBuilder, error) {
	switch runtime.GOOS {
	case "darwin":
		return darwinBuilder{}, nil
	case "linux":
		return linuxBuilder{resolution: probeX11Resolution}, nil
	case "windows":
		return windowsBuilder{}, nil
	default:
		return nil, fmt.Errorf("screen capture is not supported on %s", runtime.GOOS)
	}
}

// encodeArgs is the platform-independent tail of every capture command:
// hard duration limit, x264 with the tier's CRF, aac audio, and faststart
// so a partially downloaded segment stays playable.
func encodeArgs(outputPath string, p Params) []string {
	return []string{
		"-t", strconv.Itoa(int(p.Duration.Seconds())),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", p.Quality.CRF(),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		outputPath,
	}
}

type darwinBuilder struct{}

func (darwinBuilder) Command(outputPath string, p Params) (string, []string) {
	args := []string{
		"-y",
		"-f", "avfoundation",
		"-framerate", strconv.Itoa(p.FrameRate),
		"-capture_cursor", "1",
		"-i", fmt.Sprintf("%d:%s", p.Inputs.ScreenIndex, p.Inputs.AudioDevice),
	}
	return ffmpegBinary, append(args, encodeArgs(outputPath, p)...)
}

type linuxBuilder struct {
	resolution func() string
}

func (b linuxBuilder) Command(outputPath string, p Params) (string, []string) {
	args := []string{
		"-y",
		"-f", "x11grab",
		"-framerate", strconv.Itoa(p.FrameRate),
		"-video_size", b.resolution(),
		"-i", fmt.Sprintf(":0.%d", p.Inputs.ScreenIndex),
		"-f", "pulse",
		"-i", p.Inputs.AudioDevice,
	}
	return ffmpegBinary, append(args, encodeArgs(outputPath, p)...)
}

type windowsBuilder struct{}

func (windowsBuilder) Command(outputPath string, p Params) (string, []string) {
	args := []string{
		"-y",
		"-f", "gdigrab",
		"-framerate", strconv.Itoa(p.FrameRate),
		"-i", "desktop",
		"-f", "dshow",
		"-i", "audio=" + p.Inputs.AudioDevice,
	}
	return ffmpegBinary, append(args, encodeArgs(outputPath, p)...)
}

// probeX11Resolution asks xdpyinfo for the display dimensions, falling back
// to 1080p when the probe fails.
func probeX11Resolution() string {
	out, err := exec.Command("xdpyinfo").Output()
	if err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.Contains(line, "dimensions:") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					return fields[1]
				}
			}
		}
	}
	return "1920x1080"
}
