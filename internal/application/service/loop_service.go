package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/port/output"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/executor"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/gate"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/service/strategy"
)

// LoopService drives the autonomous cycle: sweep expired requests,
// act on human decisions, execute approved plans. One tick is one
// full pass; RunContinuous repeats it until the context is cancelled.
type LoopService struct {
	gate       *gate.UseCase
	executor   *executor.UseCase
	classifier strategy.ActionClassifier
	mailer     output.MailGateway
	ledger     output.LedgerGateway
	log        zerolog.Logger
	interval   time.Duration
}

// NewLoopService wires the loop
func NewLoopService(
	g *gate.UseCase,
	ex *executor.UseCase,
	classifier strategy.ActionClassifier,
	mailer output.MailGateway,
	ledger output.LedgerGateway,
	log zerolog.Logger,
	interval time.Duration,
) *LoopService {
	return &LoopService{
		gate:       g,
		executor:   ex,
		classifier: classifier,
		mailer:     mailer,
		ledger:     ledger,
		log:        log,
		interval:   interval,
	}
}

// RunOnce performs a single tick
func (s *LoopService) RunOnce(ctx context.Context) error {
	swept, err := s.gate.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired: %w", err)
	}
	if swept > 0 {
		s.log.Info().Int("count", swept).Msg("expired requests swept")
	}

	if err := s.settleDecisions(ctx); err != nil {
		return err
	}

	executed, err := s.executor.Tick(ctx)
	if err != nil {
		return fmt.Errorf("execute plans: %w", err)
	}
	if executed > 0 {
		s.log.Info().Int("count", executed).Msg("plans executed")
	}
	return nil
}

// RunContinuous ticks until the context is cancelled. A failing tick
// is logged and the loop keeps going; only cancellation stops it.
func (s *LoopService) RunContinuous(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Error().Err(err).Msg("tick failed")
		}

		select {
		case <-ctx.Done():
			s.log.Info().Msg("loop stopped")
			return nil
		case <-ticker.C:
		}
	}

	s.log.Info().Msg("loop stopped")
	return nil
}

// settleDecisions finalizes every request document a human relocated
// since the last tick. Approved standalone actions are executed
// directly through the gateways.
func (s *LoopService) settleDecisions(ctx context.Context) error {
	scan, err := s.gate.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan approvals: %w", err)
	}

	for _, ref := range scan.Approved {
		desc, err := s.gate.FinalizeApproved(ctx, ref)
		if err != nil {
			s.log.Warn().Str("doc", ref.Path()).Err(err).Msg("approval finalization failed")
			continue
		}
		s.dispatch(ctx, desc)
	}

	for _, ref := range scan.Rejected {
		if err := s.gate.FinalizeRejected(ctx, ref); err != nil {
			s.log.Warn().Str("doc", ref.Path()).Err(err).Msg("rejection finalization failed")
		}
	}

	return nil
}

// dispatch executes one approved standalone action. Anything it
// cannot perform safely is logged for a human instead of guessed at.
func (s *LoopService) dispatch(ctx context.Context, desc *gate.ActionDescriptor) {
	detail := func(key string) string {
		for _, d := range desc.Details {
			if d.Key == key {
				return d.Value
			}
		}
		return ""
	}

	switch s.classifier.Classify(desc.ActionType) {
	case model.ActionEmail:
		to, subject, body := detail("to"), detail("subject"), detail("body")
		if to == "" || body == "" {
			s.log.Warn().Str("action", desc.ActionType).Msg("approved email lacks recipient or body, manual execution required")
			return
		}
		if subject == "" {
			subject = "Automated update"
		}
		sent, err := s.mailer.Send(ctx, to, subject, body)
		if err != nil {
			s.log.Error().Str("action", desc.ActionType).Err(err).Msg("approved email send failed")
			return
		}
		s.log.Info().Str("to", to).Str("message_id", sent.MessageID).Msg("approved email sent")

	case model.ActionFinancial:
		payload, err := s.runLedgerAction(ctx, desc.ActionType, detail)
		if err != nil {
			s.log.Error().Str("action", desc.ActionType).Err(err).Msg("approved financial action failed")
			return
		}
		s.log.Info().Str("action", desc.ActionType).Str("result", payload).Msg("approved financial action executed")

	default:
		s.log.Info().Str("action", desc.ActionType).Msg("approved action needs manual execution")
	}
}

func (s *LoopService) runLedgerAction(ctx context.Context, action string, detail func(string) string) (string, error) {
	switch action {
	case "get_balances":
		r, err := s.ledger.GetBalances(ctx)
		if err != nil {
			return "", err
		}
		return r.Payload, nil

	case "get_transactions":
		window := 30 * 24 * time.Hour
		if n, err := strconv.Atoi(detail("days")); err == nil && n > 0 {
			window = time.Duration(n) * 24 * time.Hour
		}
		r, err := s.ledger.GetTransactions(ctx, window)
		if err != nil {
			return "", err
		}
		return r.Payload, nil

	case "create_expense":
		amount, err := strconv.ParseFloat(detail("amount"), 64)
		if err != nil {
			return "", fmt.Errorf("parse expense amount %q: %w", detail("amount"), err)
		}
		category := detail("category")
		if category == "" {
			category = "uncategorized"
		}
		r, err := s.ledger.CreateExpense(ctx, detail("description"), amount, category)
		if err != nil {
			return "", err
		}
		return r.Payload, nil

	case "get_summary":
		period := detail("period")
		if period == "" {
			period = "month"
		}
		r, err := s.ledger.GetSummary(ctx, period)
		if err != nil {
			return "", err
		}
		return r.Payload, nil

	default:
		return "", fmt.Errorf("unknown financial action %q", action)
	}
}
