package plan

import (
	"strings"
	"testing"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

func newTestPlan(t *testing.T) *Plan {
	t.Helper()
	p, err := New("ITEM_20260101_000000_invoice", "Handle the ACME invoice", model.ComplexityHigh, []Step{
		{Description: "Draft a reply to the client"},
		{Description: "Send the drafted email"},
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return p
}

func TestRenderParseRoundTrip(t *testing.T) {
	p := newTestPlan(t)
	doc := p.Render()

	parsed, err := ParseDocument(p.ID(), doc)
	if err != nil {
		t.Fatalf("ParseDocument() unexpected error: %v", err)
	}

	if parsed.ID() != p.ID() {
		t.Errorf("ID() = %q, want %q", parsed.ID(), p.ID())
	}
	if parsed.WorkItemID() != p.WorkItemID() {
		t.Errorf("WorkItemID() = %q, want %q", parsed.WorkItemID(), p.WorkItemID())
	}
	if parsed.Complexity() != model.ComplexityHigh {
		t.Errorf("Complexity() = %v, want high", parsed.Complexity())
	}
	if parsed.Summary() != "Handle the ACME invoice" {
		t.Errorf("Summary() = %q", parsed.Summary())
	}

	steps := parsed.Steps()
	if len(steps) != 2 {
		t.Fatalf("Steps() len = %d, want 2", len(steps))
	}
	if steps[0].Description != "Draft a reply to the client" {
		t.Errorf("step 1 = %q", steps[0].Description)
	}
	if steps[1].Ordinal != 2 {
		t.Errorf("step 2 ordinal = %d", steps[1].Ordinal)
	}
}

func TestRenderContainsPhaseTemplate(t *testing.T) {
	doc := newTestPlan(t).Render()

	for _, want := range []string{
		"## Phase 1: Analysis",
		"## Phase 2: Preparation",
		"## Phase 3: Execution",
		"## Phase 4: Validation",
		"## Phase 5: Completion",
		"## Risk Assessment",
		"## Approval Requirements",
		"## Progress Tracking",
		"## Execution Notes",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("rendered plan missing section %q", want)
		}
	}
}

func TestParseDocumentHandAuthored(t *testing.T) {
	// A human-authored plan dropped into Approved has no frontmatter;
	// steps come from the markdown body.
	doc := `# My manual plan

## Steps

1. Send an email to bob@example.com
2. Check the account balance
`
	parsed, err := ParseDocument("PLAN_manual", doc)
	if err != nil {
		t.Fatalf("ParseDocument() unexpected error: %v", err)
	}
	if parsed.ID() != "PLAN_manual" {
		t.Errorf("ID() = %q", parsed.ID())
	}
	if len(parsed.Steps()) != 2 {
		t.Fatalf("Steps() len = %d, want 2", len(parsed.Steps()))
	}
	if parsed.Status() != StatusPending {
		t.Errorf("Status() = %v, want pending", parsed.Status())
	}
}

func TestUpdateProgressBlock(t *testing.T) {
	doc := newTestPlan(t).Render()
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	updated := UpdateProgressBlock(doc, "Phase 3 - Execution", 5, 8, now)

	if !strings.Contains(updated, "**Current Phase:** Phase 3 - Execution") {
		t.Error("progress block not rewritten")
	}
	if !strings.Contains(updated, "**Completed Steps:** 5 / 8") {
		t.Error("completed count not rewritten")
	}
	if strings.Contains(updated, "**Completed Steps:** 0 /") {
		t.Error("old progress block not removed")
	}
	if !strings.Contains(updated, "## Execution Notes") {
		t.Error("sections after the progress block must survive the rewrite")
	}

	// Repeat-safe
	again := UpdateProgressBlock(updated, "Phase 4 - Validation", 7, 8, now)
	if strings.Count(again, "## Progress Tracking") != 1 {
		t.Error("repeated updates must not duplicate the block")
	}
}

func TestAppendNoteNeverTruncates(t *testing.T) {
	doc := newTestPlan(t).Render()
	now := time.Now()

	doc = AppendNote(doc, "first note", now)
	doc = AppendNote(doc, "second note", now)

	if !strings.Contains(doc, "first note") || !strings.Contains(doc, "second note") {
		t.Error("earlier notes must be preserved")
	}
}

func TestAppendCompletion(t *testing.T) {
	doc := newTestPlan(t).Render()

	done := AppendCompletion(doc, false, time.Now())
	if !strings.Contains(done, "status: failed") {
		t.Error("frontmatter status not flipped to failed")
	}
	if !strings.Contains(done, "## Plan Completed") {
		t.Error("completion block missing")
	}
	if !strings.Contains(done, "**Status:** Failed") {
		t.Error("failed outcome missing")
	}
}

func TestMarkOutcome(t *testing.T) {
	p := newTestPlan(t)
	p.MarkOutcome(true)
	if p.Status() != StatusCompleted {
		t.Errorf("Status() = %v, want completed", p.Status())
	}
	p2 := newTestPlan(t)
	p2.MarkOutcome(false)
	if p2.Status() != StatusFailed {
		t.Errorf("Status() = %v, want failed", p2.Status())
	}
}
