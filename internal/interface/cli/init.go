package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/persistence/sqlite"
)

const settingTemplate = `# vaultloop configuration
vault_root: vault
llm_gateway: mock
mail_gateway: mock
ledger_gateway: mock
interval_sec: 60
max_plans_per_tick: 10
concurrency: 2
approval_ttl_hours: 24
log_level: info
`

func newInitCommand(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the vault folder layout and a starter setting.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.vault.EnsureLayout(); err != nil {
				return fmt.Errorf("create vault layout: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vault ready at %s\n", c.vault.Root())

			if err := os.MkdirAll(filepath.Dir(c.cfg.LockDBPath), 0o755); err != nil {
				return fmt.Errorf("lock db dir: %w", err)
			}
			db, err := sqlite.Open(c.cfg.LockDBPath)
			if err != nil {
				return fmt.Errorf("open lock db: %w", err)
			}
			defer db.Close()
			if err := sqlite.Migrate(db); err != nil {
				return fmt.Errorf("migrate lock db: %w", err)
			}

			if _, err := os.Stat(c.settingPath); os.IsNotExist(err) {
				if err := os.WriteFile(c.settingPath, []byte(settingTemplate), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", c.settingPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", c.settingPath)
			}
			return nil
		},
	}
}
