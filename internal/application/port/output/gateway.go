package output

import (
	"context"
	"time"
)

// LLMGateway is the text-generation service boundary. The engine
// treats failures as step failures, never retries, and performs no
// prompt sanitization: callers feeding vault text into prompts must
// treat that text as untrusted.
type LLMGateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SendResult is the outcome of one mail send
type SendResult struct {
	MessageID string
}

// MailGateway is the messaging backend boundary
type MailGateway interface {
	Send(ctx context.Context, to, subject, body string) (*SendResult, error)
}

// LedgerResult is the payload of one accounting operation
type LedgerResult struct {
	Payload string
}

// LedgerGateway is the accounting backend boundary: four idempotent
// operations, each returning a payload or an error. Failed calls are
// never retried by the executor.
type LedgerGateway interface {
	GetBalances(ctx context.Context) (*LedgerResult, error)
	GetTransactions(ctx context.Context, window time.Duration) (*LedgerResult, error)
	CreateExpense(ctx context.Context, description string, amount float64, category string) (*LedgerResult, error)
	GetSummary(ctx context.Context, period string) (*LedgerResult, error)
}
