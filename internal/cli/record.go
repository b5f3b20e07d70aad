package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Karthik-Ragunath/screencap/internal/capture"
	"github.com/Karthik-Ragunath/screencap/internal/output"
	"github.com/Karthik-Ragunath/screencap/internal/session"
)

// drainBudget bounds how long shutdown waits for in-flight transcription
// and uploads before abandoning them.
const drainBudget = 30 * time.Second

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var (
		forDuration    time.Duration
		quality        string
		segmentSeconds int
		fps            int
		audioDevice    string
		screen         int
		accumulate     bool
		outputDir      string
		noUpload       bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the screen in segments until interrupted",
		Long:  "Record screen and audio in fixed-duration segments. Runs until Ctrl+C or the --for duration elapses. Each finished segment is merged, transcribed, and uploaded in the background.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			q, err := capture.ParseQuality(quality)
			if err != nil {
				return err
			}
			if segmentSeconds <= 0 {
				return fmt.Errorf("segment duration must be positive, got %d", segmentSeconds)
			}

			sessionCfg := session.Config{
				OutputDir:      outputDir,
				SegmentSeconds: segmentSeconds,
				FrameRate:      fps,
				Quality:        q,
				AudioDevice:    audioDevice,
				ScreenIndex:    screen,
				Accumulate:     accumulate,
			}

			if noUpload {
				deps.App.Controller.SetUploader(nil)
			}

			sess, err := deps.App.Controller.Start(sessionCfg)
			if err != nil {
				return err
			}
			formatter.RecordingStarted(sess.ID, outputDir, segmentSeconds)

			waitForStopSignal(forDuration)

			if err := deps.App.Controller.Stop(); err != nil {
				return err
			}

			deps.App.Controller.DrainProcessing(drainBudget)
			if deps.App.Queue != nil && !noUpload {
				if n := deps.App.Queue.Len(); n > 0 {
					formatter.Info(fmt.Sprintf("Waiting for %d pending upload(s)...", n))
				}
				deps.App.Queue.DrainAndStop(drainBudget)
			}

			st := deps.App.Controller.Status()
			formatter.RecordingStopped(time.Since(sess.StartedAt), st.SegmentCount, st.CurrentArtifact)
			return nil
		},
	}

	cfg := deps.Config
	cmd.Flags().DurationVar(&forDuration, "for", 0, "Stop automatically after this duration (0 = run until Ctrl+C)")
	cmd.Flags().StringVarP(&quality, "quality", "q", cfg.Quality, "Encoding quality: low, medium, or high")
	cmd.Flags().IntVar(&segmentSeconds, "segment-duration", cfg.SegmentSeconds, "Segment length in seconds")
	cmd.Flags().IntVar(&fps, "fps", cfg.FrameRate, "Capture frame rate")
	cmd.Flags().StringVar(&audioDevice, "audio-device", cfg.AudioDevice, "Audio input device name")
	cmd.Flags().IntVar(&screen, "screen", cfg.ScreenIndex, "Screen index to capture")
	cmd.Flags().BoolVar(&accumulate, "accumulate", cfg.Accumulate, "Maintain a growing merged video across segments")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", cfg.OutputDir, "Directory for recordings")
	cmd.Flags().BoolVar(&noUpload, "no-upload", false, "Keep recordings local even when remote storage is configured")

	return cmd
}

// waitForStopSignal blocks until SIGINT/SIGTERM or, when forDuration is
// positive, until it elapses.
func waitForStopSignal(forDuration time.Duration) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	if forDuration > 0 {
		select {
		case <-sig:
		case <-time.After(forDuration):
		}
		return
	}
	<-sig
}
