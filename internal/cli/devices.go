package cli

import (
	"bytes"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		Long:  "List the screens and audio inputs ffmpeg can capture on this machine, for use with --screen and --audio-device.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			switch runtime.GOOS {
			case "darwin":
				return listAVFoundationDevices(formatter)
			case "linux":
				formatter.Info("Screens: check $DISPLAY (x11grab captures the whole display)")
				formatter.Info("Audio inputs: run 'pactl list short sources' and pass a source name via --audio-device")
				return nil
			default:
				formatter.Info("Device listing is not supported on " + runtime.GOOS)
				return nil
			}
		},
	}
}

// listAVFoundationDevices asks ffmpeg to enumerate avfoundation inputs. The
// probe always exits nonzero because no input is given; the device table is
// on stderr.
func listAVFoundationDevices(formatter *output.Formatter) error {
	cmd := exec.Command("ffmpeg", "-f", "avfoundation", "-list_devices", "true", "-i", "")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	printed := false
	for _, line := range strings.Split(stderr.String(), "\n") {
		if !strings.Contains(line, "AVFoundation") {
			continue
		}
		if idx := strings.Index(line, "]"); idx >= 0 && idx+1 < len(line) {
			formatter.Info(strings.TrimSpace(line[idx+1:]))
			printed = true
		}
	}
	if !printed {
		formatter.Warning("No devices reported. Is ffmpeg installed with avfoundation support?")
	}
	return nil
}
