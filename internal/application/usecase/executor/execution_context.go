package executor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StepResult is the outcome of one executed step
type StepResult struct {
	Success bool              `json:"success"`
	Kind    string            `json:"kind"`
	Content string            `json:"content,omitempty"`
	Error   string            `json:"error,omitempty"`
	Note    string            `json:"note,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// ExecutionContext accumulates step results for one plan run. It is
// transient: it lives for a single pass over a plan's steps and is
// what lets a later step (an email body, say) reuse the output of an
// earlier generate step.
type ExecutionContext struct {
	planID    string
	runID     string
	startedAt time.Time
	order     []string
	results   map[string]StepResult
}

// NewExecutionContext creates a context for one plan run
func NewExecutionContext(planID string) *ExecutionContext {
	return &ExecutionContext{
		planID:    planID,
		runID:     uuid.New().String(),
		startedAt: time.Now().UTC(),
		results:   make(map[string]StepResult),
	}
}

// PlanID returns the plan this run belongs to
func (c *ExecutionContext) PlanID() string { return c.planID }

// RunID returns the unique ID of this run
func (c *ExecutionContext) RunID() string { return c.runID }

// Record stores the result of a step, keyed step_<ordinal>
func (c *ExecutionContext) Record(ordinal int, result StepResult) {
	key := stepKey(ordinal)
	if _, seen := c.results[key]; !seen {
		c.order = append(c.order, key)
	}
	c.results[key] = result
}

// Result looks up a recorded step result
func (c *ExecutionContext) Result(ordinal int) (StepResult, bool) {
	r, ok := c.results[stepKey(ordinal)]
	return r, ok
}

// PriorContent returns the content of the most recent successful step
// of the given kind, in recording order. Used to fall back on earlier
// generated output when a step's own parameters are unresolved.
func (c *ExecutionContext) PriorContent(kind string) (string, bool) {
	for i := len(c.order) - 1; i >= 0; i-- {
		r := c.results[c.order[i]]
		if r.Success && r.Kind == kind && r.Content != "" {
			return r.Content, true
		}
	}
	return "", false
}

// Summary serializes the accumulated results as JSON for inclusion in
// prompts
func (c *ExecutionContext) Summary() string {
	b, err := json.Marshal(c.results)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func stepKey(ordinal int) string {
	return fmt.Sprintf("step_%d", ordinal)
}
