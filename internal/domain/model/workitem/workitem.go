package workitem

import (
	"errors"
	"fmt"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

// ErrIllegalTransition is returned when a stage move violates the
// lifecycle transition table.
var ErrIllegalTransition = errors.New("illegal stage transition")

// WorkItem is a unit of detected external activity requiring triage.
// It lives in exactly one stage at a time; moving it is an atomic
// relocation, never a copy.
type WorkItem struct {
	id        string
	source    model.SourceType
	priority  model.Priority
	subject   string
	body      string
	createdAt time.Time
	stage     model.Stage
}

// New creates a work item in the Inbox stage. The identifier is derived
// from the creation timestamp and the slugified subject, which doubles
// as the dedup key for signal adapters.
func New(subject, body string, source model.SourceType, priority model.Priority) (*WorkItem, error) {
	if subject == "" {
		return nil, errors.New("subject cannot be empty")
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("invalid source type: %s", source)
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority: %s", priority)
	}

	now := time.Now()
	return &WorkItem{
		id:        model.NewWorkItemID(subject, now),
		source:    source,
		priority:  priority,
		subject:   subject,
		body:      body,
		createdAt: now,
		stage:     model.StageInbox,
	}, nil
}

// Reconstruct rebuilds a work item from stored data
func Reconstruct(
	id string,
	source model.SourceType,
	priority model.Priority,
	subject string,
	body string,
	createdAt time.Time,
	stage model.Stage,
) *WorkItem {
	return &WorkItem{
		id:        id,
		source:    source,
		priority:  priority,
		subject:   subject,
		body:      body,
		createdAt: createdAt,
		stage:     stage,
	}
}

// AdvanceTo transitions the item to a new stage, rejecting moves the
// transition table does not allow.
func (w *WorkItem) AdvanceTo(next model.Stage) error {
	if !next.IsValid() {
		return fmt.Errorf("invalid stage: %s", next)
	}
	if !w.stage.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, w.stage, next)
	}
	w.stage = next
	return nil
}

// Getters
func (w *WorkItem) ID() string               { return w.id }
func (w *WorkItem) Source() model.SourceType { return w.source }
func (w *WorkItem) Priority() model.Priority { return w.priority }
func (w *WorkItem) Subject() string          { return w.subject }
func (w *WorkItem) Body() string             { return w.body }
func (w *WorkItem) CreatedAt() time.Time     { return w.createdAt }
func (w *WorkItem) Stage() model.Stage       { return w.stage }
