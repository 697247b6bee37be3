package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	appconfig "github.com/YoshitsuguKoike/vaultloop/internal/app/config"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/port/output"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/executor"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/gate"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/planner"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/service/strategy"
	gwledger "github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/gateway/ledger"
	gwllm "github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/gateway/llm"
	gwmail "github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/gateway/mail"
	infra "github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/repository"
)

// container holds the wired application, assembled once per
// invocation in the root command's PersistentPreRunE
type container struct {
	cfg         *appconfig.Config
	log         zerolog.Logger
	vault       *infra.Vault
	settingPath string

	items     repository.WorkItemRepository
	approvals repository.ApprovalRepository
	plans     repository.PlanRepository
	audit     repository.AuditLogRepository

	llm    output.LLMGateway
	mailer output.MailGateway
	ledger output.LedgerGateway

	gate     *gate.UseCase
	planner  *planner.UseCase
	executor *executor.UseCase
}

func buildContainer(settingPath string) (*container, error) {
	cfg, err := appconfig.Load(settingPath)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	vault := infra.NewVault(afero.NewOsFs(), cfg.VaultRoot)

	c := &container{
		cfg:       cfg,
		log:       log,
		vault:     vault,
		items:     infra.NewWorkItemRepository(vault),
		approvals: infra.NewApprovalRepository(vault),
		plans:     infra.NewPlanRepository(vault),
		audit:     infra.NewAuditLogRepository(vault),
	}

	if c.llm, err = gwllm.NewLLMGateway(cfg.LLMGateway, cfg.OpenAIAPIKey); err != nil {
		return nil, fmt.Errorf("llm gateway: %w", err)
	}
	if c.mailer, err = gwmail.NewMailGateway(cfg.MailGateway); err != nil {
		return nil, fmt.Errorf("mail gateway: %w", err)
	}
	if c.ledger, err = gwledger.NewLedgerGateway(cfg.LedgerGateway); err != nil {
		return nil, fmt.Errorf("ledger gateway: %w", err)
	}

	c.gate = gate.NewUseCase(c.approvals, c.audit, log)
	c.planner = planner.NewUseCase(c.plans, c.items, c.audit, strategy.NewKeywordPlanningStrategy(), log)
	c.executor = executor.NewUseCase(
		c.plans, c.audit, c.planner,
		strategy.NewKeywordClassifier(),
		c.llm, c.mailer, c.ledger,
		log,
		executor.WithMaxPlansPerTick(cfg.MaxPlansPerTick),
		executor.WithConcurrency(cfg.Concurrency),
	)

	return c, nil
}

// NewRoot builds the vaultloop command tree
func NewRoot() *cobra.Command {
	var settingPath string
	c := &container{}

	root := &cobra.Command{
		Use:           "vaultloop",
		Short:         "Human-in-the-loop automation over a folder vault",
		Long:          "vaultloop watches a folder vault where documents move between stage folders.\nRelocating a document is how a human approves or rejects work; vaultloop\nplans, gates, and executes around those decisions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := buildContainer(settingPath)
			if err != nil {
				return err
			}
			*c = *built
			c.settingPath = settingPath
			if c.settingPath == "" {
				c.settingPath = appconfig.SettingFileName
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&settingPath, "setting", "", "path to setting.yml (default ./setting.yml)")

	root.AddCommand(
		newInitCommand(c),
		newApprovalCommand(c),
		newPlanCommand(c),
		newRunCommand(c),
		newJournalCommand(c),
		newStatusCommand(c),
	)
	return root
}

// Execute runs the CLI
func Execute() int {
	if err := NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
