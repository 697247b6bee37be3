package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

func newStatusCommand(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many documents sit in each stage folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages := []model.Stage{
				model.StageInbox,
				model.StagePlanning,
				model.StagePendingApproval,
				model.StageApproved,
				model.StageRejected,
				model.StageDone,
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vault: %s\n", c.vault.Root())
			for _, stage := range stages {
				count, err := countDocs(c.vault.FS(), c.vault.Abs(stage.Dir()))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-17s %d\n", stage.Dir(), count)
			}
			return nil
		},
	}
}

func countDocs(fs afero.Fs, dir string) (int, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		// An uninitialized vault simply has nothing in it.
		return 0, nil
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count, nil
}
