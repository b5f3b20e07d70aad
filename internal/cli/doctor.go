package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Karthik-Ragunath/screencap/internal/capture"
	"github.com/Karthik-Ragunath/screencap/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ok := true

			if err := capture.CheckEncoder(); err != nil {
				f.SetupCheck("ffmpeg", false, "not found. Install with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)")
				ok = false
			} else {
				f.SetupCheck("ffmpeg", true, "installed")
			}

			f.SetupCheck("Screen recording", true, "permission will be requested on first recording")

			if deps.Config.TranscriptionConfigured() {
				f.SetupCheck("Gemini API key", true, "configured")
			} else {
				f.SetupCheck("Gemini API key", false, "not set. Set GEMINI_API_KEY or add to config (transcription disabled)")
			}

			if deps.Config.UploadConfigured() {
				f.SetupCheck("S3 bucket", true, deps.Config.S3Bucket+" ("+deps.Config.S3Region+")")
			} else {
				f.SetupCheck("S3 bucket", false, "not set. Set SCREENCAP_S3_BUCKET or add to config (uploads disabled)")
			}

			if info, err := os.Stat(deps.Config.OutputDir); err == nil && info.IsDir() {
				f.SetupCheck("Output directory", true, deps.Config.OutputDir)
			} else {
				f.SetupCheck("Output directory", false, deps.Config.OutputDir+" is not writable")
				ok = false
			}

			if ok {
				f.Success("\nReady to record. Transcription and upload are optional extras.")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}
