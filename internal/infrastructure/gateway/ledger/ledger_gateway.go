package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/port/output"
)

// NewLedgerGateway creates an accounting gateway by kind.
// Supported kinds: mock (sandbox data). Live backends plug in here.
func NewLedgerGateway(kind string) (output.LedgerGateway, error) {
	switch kind {
	case "", "mock":
		return NewMockGateway(), nil
	default:
		return nil, fmt.Errorf("unknown ledger gateway kind: %s (supported: mock)", kind)
	}
}

// MockGateway returns canned sandbox figures
type MockGateway struct{}

// NewMockGateway creates a sandbox accounting gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// GetBalances returns sandbox account balances
func (g *MockGateway) GetBalances(ctx context.Context) (*output.LedgerResult, error) {
	return &output.LedgerResult{
		Payload: `{"checking": 12480.55, "savings": 40210.00, "currency": "USD"}`,
	}, nil
}

// GetTransactions returns sandbox transactions within the window
func (g *MockGateway) GetTransactions(ctx context.Context, window time.Duration) (*output.LedgerResult, error) {
	return &output.LedgerResult{
		Payload: fmt.Sprintf(`{"window": %q, "transactions": [{"desc": "Office supplies", "amount": -84.20}, {"desc": "Client payment", "amount": 2500.00}]}`, window.String()),
	}, nil
}

// CreateExpense records a sandbox expense entry
func (g *MockGateway) CreateExpense(ctx context.Context, description string, amount float64, category string) (*output.LedgerResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("expense amount must be positive, got %.2f", amount)
	}
	return &output.LedgerResult{
		Payload: fmt.Sprintf(`{"created": true, "description": %q, "amount": %.2f, "category": %q}`, description, amount, category),
	}, nil
}

// GetSummary returns a sandbox financial summary for the period
func (g *MockGateway) GetSummary(ctx context.Context, period string) (*output.LedgerResult, error) {
	return &output.LedgerResult{
		Payload: fmt.Sprintf(`{"period": %q, "income": 10400.00, "expenses": 6231.18, "net": 4168.82}`, period),
	}, nil
}
