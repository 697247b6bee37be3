package approval

import (
	"errors"
	"fmt"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

// DefaultTTL is how long a request waits for a human decision before
// the sweep rejects it.
const DefaultTTL = 24 * time.Hour

// Status represents the decision state of an approval request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// Detail is one key/value pair describing an action parameter.
// Details keep insertion order so the rendered document reads the way
// the caller wrote it.
type Detail struct {
	Key   string
	Value string
}

// Request is a sensitive action awaiting human sign-off. The decision
// is carried by the document's location in the vault, not by a field;
// the status here mirrors what the gate last observed.
type Request struct {
	id         string
	actionType string
	details    []Detail
	reason     string
	priority   model.Priority
	createdAt  time.Time
	expiresAt  time.Time
	status     Status
}

// New creates a pending request. Expiry is creation time plus ttl;
// a zero ttl means DefaultTTL.
func New(actionType string, details []Detail, reason string, priority model.Priority, ttl time.Duration) (*Request, error) {
	if actionType == "" {
		return nil, errors.New("action type cannot be empty")
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority: %s", priority)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	return &Request{
		id:         model.NewRequestID(actionType, now),
		actionType: actionType,
		details:    details,
		reason:     reason,
		priority:   priority,
		createdAt:  now,
		expiresAt:  now.Add(ttl),
		status:     StatusPending,
	}, nil
}

// Reconstruct rebuilds a request from a parsed document
func Reconstruct(
	id string,
	actionType string,
	details []Detail,
	reason string,
	priority model.Priority,
	createdAt time.Time,
	expiresAt time.Time,
	status Status,
) *Request {
	return &Request{
		id:         id,
		actionType: actionType,
		details:    details,
		reason:     reason,
		priority:   priority,
		createdAt:  createdAt,
		expiresAt:  expiresAt,
		status:     status,
	}
}

// IsExpired reports whether the request's expiry has passed. A zero
// expiry (unparsable or absent in the source document) never counts as
// expired: the gate fails open rather than rejecting a request a human
// may still act on.
func (r *Request) IsExpired(now time.Time) bool {
	if r.expiresAt.IsZero() {
		return false
	}
	return now.After(r.expiresAt)
}

// MarkStatus records an observed decision
func (r *Request) MarkStatus(s Status) error {
	if !s.IsValid() {
		return fmt.Errorf("invalid approval status: %s", s)
	}
	r.status = s
	return nil
}

// DetailValue looks up a detail by key
func (r *Request) DetailValue(key string) (string, bool) {
	for _, d := range r.details {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

// Getters
func (r *Request) ID() string               { return r.id }
func (r *Request) ActionType() string       { return r.actionType }
func (r *Request) Details() []Detail        { return r.details }
func (r *Request) Reason() string           { return r.reason }
func (r *Request) Priority() model.Priority { return r.priority }
func (r *Request) CreatedAt() time.Time     { return r.createdAt }
func (r *Request) ExpiresAt() time.Time     { return r.expiresAt }
func (r *Request) Status() Status           { return r.status }
