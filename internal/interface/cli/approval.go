package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/gate"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/approval"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
)

func newApprovalCommand(c *container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approval",
		Short: "Create, scan, and sweep approval requests",
	}
	cmd.AddCommand(
		newApprovalCreateCommand(c),
		newApprovalScanCommand(c),
		newApprovalSweepCommand(c),
	)
	return cmd
}

func newApprovalCreateCommand(c *container) *cobra.Command {
	var (
		action   string
		reason   string
		priority string
		ttlHours int
		details  []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pending approval request document",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseDetails(details)
			if err != nil {
				return err
			}

			prio := model.Priority(priority)
			if !prio.IsValid() {
				prio = model.PriorityMedium
			}

			ttl := c.cfg.ApprovalTTL()
			if ttlHours > 0 {
				ttl = time.Duration(ttlHours) * time.Hour
			}

			req, ref, err := c.gate.CreateRequest(cmd.Context(), gate.CreateRequestInput{
				ActionType: action,
				Details:    parsed,
				Reason:     reason,
				Priority:   prio,
				TTL:        ttl,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n  %s\n", req.ID(), ref.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "action type requiring approval (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "why this action needs a human decision")
	cmd.Flags().StringVar(&priority, "priority", "medium", "low|medium|high|urgent")
	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 0, "hours before the request expires (default from config)")
	cmd.Flags().StringArrayVar(&details, "detail", nil, "action detail as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func newApprovalScanCommand(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Report where every request document currently sits",
		RunE: func(cmd *cobra.Command, args []string) error {
			scan, err := c.gate.Scan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printBucket(out, "pending", scan.Pending)
			printBucket(out, "approved", scan.Approved)
			printBucket(out, "rejected", scan.Rejected)
			printBucket(out, "expired", scan.Expired)
			return nil
		},
	}
}

func newApprovalSweepCommand(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Relocate expired requests to Rejected",
		RunE: func(cmd *cobra.Command, args []string) error {
			swept, err := c.gate.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "swept %d expired request(s)\n", swept)
			return nil
		},
	}
}

func parseDetails(raw []string) ([]approval.Detail, error) {
	details := make([]approval.Detail, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("detail %q is not key=value", kv)
		}
		details = append(details, approval.Detail{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return details, nil
}

func printBucket(out io.Writer, name string, refs []repository.DocRef) {
	fmt.Fprintf(out, "%s: %d\n", name, len(refs))
	for _, ref := range refs {
		fmt.Fprintf(out, "  %s\n", ref.Path())
	}
}
