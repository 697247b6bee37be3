package model

import "time"

// Stage represents the lifecycle stage of a vault document.
// The stage is the authoritative state; the vault folder a document
// lives in is a human-facing presentation of it.
type Stage string

const (
	StageInbox           Stage = "INBOX"
	StagePlanning        Stage = "PLANNING"
	StagePendingApproval Stage = "PENDING_APPROVAL"
	StageApproved        Stage = "APPROVED"
	StageRejected        Stage = "REJECTED"
	StageDone            Stage = "DONE"
)

// String returns the string representation
func (s Stage) String() string {
	return string(s)
}

// IsValid validates the stage
func (s Stage) IsValid() bool {
	switch s {
	case StageInbox, StagePlanning, StagePendingApproval, StageApproved, StageRejected, StageDone:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further automated transition may occur
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageRejected
}

// CanTransitionTo checks if a stage transition is valid
func (s Stage) CanTransitionTo(next Stage) bool {
	validTransitions := map[Stage][]Stage{
		StageInbox:           {StagePlanning, StageDone},
		StagePlanning:        {StagePendingApproval, StageDone},
		StagePendingApproval: {StageApproved, StageRejected},
		StageApproved:        {StageDone},
		StageRejected:        {},
		StageDone:            {},
	}

	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}

	for _, allowedStage := range allowed {
		if allowedStage == next {
			return true
		}
	}
	return false
}

// Dir returns the vault folder presenting this stage to humans
func (s Stage) Dir() string {
	switch s {
	case StageInbox:
		return "Inbox"
	case StagePlanning:
		return "Planning"
	case StagePendingApproval:
		return "Pending_Approval"
	case StageApproved:
		return "Approved"
	case StageRejected:
		return "Rejected"
	case StageDone:
		return "Done"
	default:
		return ""
	}
}

// StageFromDir resolves a vault folder name back to its stage
func StageFromDir(dir string) (Stage, bool) {
	for _, s := range []Stage{
		StageInbox, StagePlanning, StagePendingApproval,
		StageApproved, StageRejected, StageDone,
	} {
		if s.Dir() == dir {
			return s, true
		}
	}
	return "", false
}

// Priority represents the urgency of a work item or approval request
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// String returns the string representation
func (p Priority) String() string {
	return string(p)
}

// IsValid validates the priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// SourceType represents the origin of a detected work item
type SourceType string

const (
	SourceMessage      SourceType = "message"
	SourceFileDrop     SourceType = "file_drop"
	SourceSocialSignal SourceType = "social_signal"
	SourceManual       SourceType = "manual"
)

// String returns the string representation
func (s SourceType) String() string {
	return string(s)
}

// IsValid validates the source type
func (s SourceType) IsValid() bool {
	switch s {
	case SourceMessage, SourceFileDrop, SourceSocialSignal, SourceManual:
		return true
	default:
		return false
	}
}

// Complexity classifies how involved a plan is expected to be
type Complexity string

const (
	ComplexityLow      Complexity = "low"
	ComplexityMedium   Complexity = "medium"
	ComplexityHigh     Complexity = "high"
	ComplexityCritical Complexity = "critical"
)

// String returns the string representation
func (c Complexity) String() string {
	return string(c)
}

// IsValid validates the complexity
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh, ComplexityCritical:
		return true
	default:
		return false
	}
}

// ActionKind is the dispatch category of a plan step
type ActionKind string

const (
	ActionEmail     ActionKind = "email"
	ActionFinancial ActionKind = "financial"
	ActionGenerate  ActionKind = "generate"
	ActionRead      ActionKind = "read"
	ActionOther     ActionKind = "other"
)

// String returns the string representation
func (k ActionKind) String() string {
	return string(k)
}

// Timestamp represents a point in time recorded in documents
type Timestamp struct {
	value time.Time
}

// NewTimestamp creates a new Timestamp with current time
func NewTimestamp() Timestamp {
	return Timestamp{value: time.Now()}
}

// NewTimestampFromTime creates a Timestamp from a time.Time value
func NewTimestampFromTime(t time.Time) Timestamp {
	return Timestamp{value: t}
}

// Value returns the time.Time value
func (t Timestamp) Value() time.Time {
	return t.value
}

// Before checks if this timestamp is before another
func (t Timestamp) Before(other Timestamp) bool {
	return t.value.Before(other.value)
}

// After checks if this timestamp is after another
func (t Timestamp) After(other Timestamp) bool {
	return t.value.After(other.value)
}

// String returns the string representation
func (t Timestamp) String() string {
	return t.value.Format(time.RFC3339)
}
