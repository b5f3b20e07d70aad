package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Karthik-Ragunath/screencap/internal/output"
	"github.com/Karthik-Ragunath/screencap/internal/watch"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and upload finished videos",
		Long:  "Watch a directory for .mp4 files produced by another recorder. A file is uploaded once its size is stable and it is no longer the newest video; on Ctrl+C everything still pending is uploaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			if deps.App.Queue == nil {
				return fmt.Errorf("no remote storage configured: set SCREENCAP_S3_BUCKET or add s3_bucket to config")
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			formatter.Info("Watching " + dir + " (Ctrl+C to stop)")
			w := watch.NewWatcher(dir, deps.App.Queue, deps.App.Log.WithTag("watch"))
			if err := w.Run(ctx); err != nil {
				return err
			}

			if n := deps.App.Queue.Len(); n > 0 {
				formatter.Info(fmt.Sprintf("Waiting for %d pending upload(s)...", n))
			}
			deps.App.Queue.DrainAndStop(drainBudget)
			formatter.Success("Watch stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", deps.Config.OutputDir, "Directory to watch")

	return cmd
}
