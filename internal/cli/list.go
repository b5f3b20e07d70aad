package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Karthik-Ragunath/screencap/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			artifacts, err := deps.App.Controller.List(deps.Config.OutputDir, limit)
			if err != nil {
				return err
			}
			if len(artifacts) == 0 {
				formatter.Info("No recordings found")
				return nil
			}

			formatter.ArtifactListHeader()
			for _, a := range artifacts {
				formatter.ArtifactListItem(a.Name, a.Size, a.Modified)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of entries to show")

	return cmd
}
