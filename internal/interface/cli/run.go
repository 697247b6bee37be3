package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/service"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/lock"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/service/strategy"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/persistence/sqlite"
)

const runLockName = "vaultloop-run"

func newRunCommand(c *container) *cobra.Command {
	var (
		once        bool
		intervalSec int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the autonomous loop: sweep, settle decisions, execute plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval := c.cfg.Interval()
			if intervalSec > 0 {
				interval = time.Duration(intervalSec) * time.Second
			}

			if err := c.vault.EnsureLayout(); err != nil {
				return fmt.Errorf("vault layout: %w", err)
			}

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

			lockID, err := lock.NewLockID(runLockName)
			if err != nil {
				return err
			}
			locks := sqlite.NewRunLockRepository(db)
			held, err := locks.Acquire(cmd.Context(), lockID, interval*3)
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if held == nil {
				return fmt.Errorf("another vaultloop instance is already running")
			}
			defer func() {
				if err := locks.Release(cmd.Context(), lockID); err != nil {
					c.log.Warn().Err(err).Msg("run lock release failed")
				}
			}()

			loop := service.NewLoopService(
				c.gate, c.executor,
				strategy.NewKeywordClassifier(),
				c.mailer, c.ledger,
				c.log, interval,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if once {
				return loop.RunOnce(ctx)
			}
			return loop.RunContinuous(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "perform a single tick and exit")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "seconds between ticks (default from config)")

	return cmd
}
