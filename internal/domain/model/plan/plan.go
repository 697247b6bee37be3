package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

// Status represents the terminal outcome state of a plan
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the plan reached an outcome
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Step is one instruction within a plan. Steps have no identity beyond
// their ordinal position; kind and result are attached transiently
// during execution.
type Step struct {
	Ordinal     int
	Description string
}

// Plan is a generated multi-step breakdown of how to resolve a work
// item. The structured step list is authoritative; the rendered
// markdown document is a generated, human-editable view of it.
type Plan struct {
	id         string
	workItemID string
	complexity model.Complexity
	status     Status
	steps      []Step
	summary    string
	createdAt  time.Time
}

// New creates a pending plan for a work item
func New(workItemID, summary string, complexity model.Complexity, steps []Step) (*Plan, error) {
	if workItemID == "" {
		return nil, errors.New("work item ID cannot be empty")
	}
	if complexity == "" {
		complexity = model.ComplexityMedium
	}
	if !complexity.IsValid() {
		return nil, fmt.Errorf("invalid complexity: %s", complexity)
	}

	now := time.Now()
	return &Plan{
		id:         model.NewPlanID(now),
		workItemID: workItemID,
		complexity: complexity,
		status:     StatusPending,
		steps:      renumber(steps),
		summary:    summary,
		createdAt:  now,
	}, nil
}

// Reconstruct rebuilds a plan from a parsed document
func Reconstruct(
	id string,
	workItemID string,
	complexity model.Complexity,
	status Status,
	steps []Step,
	summary string,
	createdAt time.Time,
) *Plan {
	return &Plan{
		id:         id,
		workItemID: workItemID,
		complexity: complexity,
		status:     status,
		steps:      renumber(steps),
		summary:    summary,
		createdAt:  createdAt,
	}
}

// MarkOutcome flips the plan to its terminal status
func (p *Plan) MarkOutcome(success bool) {
	if success {
		p.status = StatusCompleted
	} else {
		p.status = StatusFailed
	}
}

// renumber assigns document-order ordinals starting at 1
func renumber(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = Step{Ordinal: i + 1, Description: s.Description}
	}
	return out
}

// Getters
func (p *Plan) ID() string                   { return p.id }
func (p *Plan) WorkItemID() string           { return p.workItemID }
func (p *Plan) Complexity() model.Complexity { return p.complexity }
func (p *Plan) Status() Status               { return p.status }
func (p *Plan) Steps() []Step                { return p.steps }
func (p *Plan) Summary() string              { return p.summary }
func (p *Plan) CreatedAt() time.Time         { return p.createdAt }
