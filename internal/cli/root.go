package cli

import (
	"github.com/spf13/cobra"

	"github.com/Karthik-Ragunath/screencap/config"
	"github.com/Karthik-Ragunath/screencap/internal/app"
	"github.com/Karthik-Ragunath/screencap/internal/version"
)

type Dependencies struct {
	App    *app.App
	Config *config.Config
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "screencap",
		Short: "Record your screen in segments, transcribe, and ship to S3",
		Long:  "A CLI tool that continuously records screen and audio in fixed-duration segments, keeps a growing merged video, extracts audio, transcribes it with Gemini, and uploads everything to S3 in the background.",
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))

	return rootCmd
}
