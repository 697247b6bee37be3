package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/plan"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/workitem"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
)

func newPlanCommand(c *container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create and complete execution plans",
	}
	cmd.AddCommand(
		newPlanCreateCommand(c),
		newPlanCompleteCommand(c),
	)
	return cmd
}

func newPlanCreateCommand(c *container) *cobra.Command {
	var (
		subject    string
		body       string
		bodyFile   string
		summary    string
		complexity string
		source     string
		submit     bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build a plan for a piece of work and draft its document",
		Long:  "Builds a plan document from the work description. Steps are parsed from\na '## Steps' section in the body; without one the plan is informational.\nUnless --force is set, work the heuristic deems simple gets no plan.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if bodyFile != "" {
				data, err := os.ReadFile(bodyFile)
				if err != nil {
					return fmt.Errorf("read body file: %w", err)
				}
				body = string(data)
			}

			src := model.SourceType(source)
			if !src.IsValid() {
				src = model.SourceManual
			}

			if !force && !c.planner.ShouldPlan(body, src) {
				fmt.Fprintln(cmd.OutOrStdout(), "no plan needed (use --force to build one anyway)")
				return nil
			}

			item, err := workitem.New(subject, body, src, model.PriorityMedium)
			if err != nil {
				return err
			}
			if _, err := c.items.Save(ctx, item); err != nil {
				return fmt.Errorf("save work item: %w", err)
			}

			cx := model.Complexity(complexity)
			if !cx.IsValid() {
				cx = model.ComplexityMedium
			}
			if summary == "" {
				summary = subject
			}

			p, ref, err := c.planner.Build(ctx, item, summary, cx, plan.ParseSteps(body))
			if err != nil {
				return err
			}

			if submit {
				if ref, err = c.planner.Submit(ctx, ref); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%d steps)\n  %s\n", p.ID(), len(p.Steps()), ref.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "short description of the work (required)")
	cmd.Flags().StringVar(&body, "body", "", "work description, with an optional '## Steps' section")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "read the work description from a file")
	cmd.Flags().StringVar(&summary, "summary", "", "plan summary (defaults to the subject)")
	cmd.Flags().StringVar(&complexity, "complexity", "medium", "low|medium|high|critical")
	cmd.Flags().StringVar(&source, "source", "manual", "message|file_drop|social_signal|manual")
	cmd.Flags().BoolVar(&submit, "submit", false, "move the plan straight to Pending_Approval")
	cmd.Flags().BoolVar(&force, "force", false, "build a plan even for simple work")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func newPlanCompleteCommand(c *container) *cobra.Command {
	var failed bool

	cmd := &cobra.Command{
		Use:   "complete <folder/document.md>",
		Short: "Mark a plan document's outcome by vault-relative path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := refFromPath(args[0])
			if err != nil {
				return err
			}

			if err := c.planner.MarkComplete(cmd.Context(), ref, !failed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&failed, "failed", false, "record a failed outcome")
	return cmd
}

func refFromPath(p string) (repository.DocRef, error) {
	dir, name := splitDocPath(p)
	if dir == "" || name == "" {
		return repository.DocRef{}, fmt.Errorf("path %q must be folder/document.md relative to the vault", p)
	}
	return repository.DocRef{Dir: dir, Name: name}, nil
}

func splitDocPath(p string) (string, string) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i], p[i+1:]
		}
	}
	return "", p
}
