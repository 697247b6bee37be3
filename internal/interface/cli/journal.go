package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
)

func newJournalCommand(c *container) *cobra.Command {
	var (
		domain string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print audit log records, newest last",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := repository.AuditDomain(domain)
			switch d {
			case repository.AuditApprovals, repository.AuditPlans, repository.AuditExecution:
			default:
				return fmt.Errorf("unknown journal domain %q (approvals|plans|execution)", domain)
			}

			records, err := c.audit.Load(cmd.Context(), d)
			if err != nil {
				return err
			}

			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, rec := range records {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "approvals", "approvals|plans|execution")
	cmd.Flags().IntVar(&limit, "limit", 0, "print only the last N records")

	return cmd
}
