package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/port/output"
)

// NewMailGateway creates a messaging gateway by kind.
// Supported kinds: mock. Live transports plug in here.
func NewMailGateway(kind string) (output.MailGateway, error) {
	switch kind {
	case "", "mock":
		return NewMockGateway(), nil
	default:
		return nil, fmt.Errorf("unknown mail gateway kind: %s (supported: mock)", kind)
	}
}

// MockGateway records sends instead of delivering them
type MockGateway struct {
	mu    sync.Mutex
	sends []RecordedSend
}

// RecordedSend is one captured send
type RecordedSend struct {
	To      string
	Subject string
	Body    string
}

// NewMockGateway creates a recording mail gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Send records the message and returns a synthetic message ID
func (g *MockGateway) Send(ctx context.Context, to, subject, body string) (*output.SendResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends = append(g.sends, RecordedSend{To: to, Subject: subject, Body: body})
	return &output.SendResult{MessageID: "mock-" + uuid.New().String()}, nil
}

// Sends returns a copy of everything recorded so far
func (g *MockGateway) Sends() []RecordedSend {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]RecordedSend, len(g.sends))
	copy(out, g.sends)
	return out
}
