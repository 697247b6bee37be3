package model

import (
	"strings"
	"testing"
	"time"
)

func TestStageCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"inbox to planning", StageInbox, StagePlanning, true},
		{"inbox to done", StageInbox, StageDone, true},
		{"inbox to approved", StageInbox, StageApproved, false},
		{"planning to pending approval", StagePlanning, StagePendingApproval, true},
		{"pending to approved", StagePendingApproval, StageApproved, true},
		{"pending to rejected", StagePendingApproval, StageRejected, true},
		{"pending to done", StagePendingApproval, StageDone, false},
		{"approved to done", StageApproved, StageDone, true},
		{"approved back to pending", StageApproved, StagePendingApproval, false},
		{"done is terminal", StageDone, StageInbox, false},
		{"rejected is terminal", StageRejected, StageApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%v -> %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStageIsTerminal(t *testing.T) {
	if !StageDone.IsTerminal() {
		t.Error("Done should be terminal")
	}
	if !StageRejected.IsTerminal() {
		t.Error("Rejected should be terminal")
	}
	if StageApproved.IsTerminal() {
		t.Error("Approved should not be terminal")
	}
}

func TestStageDirRoundTrip(t *testing.T) {
	for _, s := range []Stage{
		StageInbox, StagePlanning, StagePendingApproval,
		StageApproved, StageRejected, StageDone,
	} {
		dir := s.Dir()
		if dir == "" {
			t.Fatalf("Dir() empty for %v", s)
		}
		got, ok := StageFromDir(dir)
		if !ok || got != s {
			t.Errorf("StageFromDir(%q) = %v, %v; want %v", dir, got, ok, s)
		}
	}

	if _, ok := StageFromDir("Nonexistent"); ok {
		t.Error("StageFromDir should reject unknown folders")
	}
}

func TestPriorityIsValid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		if !p.IsValid() {
			t.Errorf("%v should be valid", p)
		}
	}
	if Priority("critical").IsValid() {
		t.Error("unknown priority should be invalid")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Send Email", "send-email"},
		{"send_email", "send_email"},
		{"Quarterly Report: Q3/2025", "quarterly-report-q3-2025"},
		{"  ", "item"},
		{"ＦＵＬＬＷＩＤＴＨ", "fullwidth"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyLengthCap(t *testing.T) {
	long := strings.Repeat("abc ", 40)
	slug := Slugify(long)
	if len([]rune(slug)) > 50 {
		t.Errorf("slug too long: %d runes", len([]rune(slug)))
	}
}

func TestNewRequestID(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewRequestID("Send Email", at)
	if id != "APPROVAL_send-email_20260314_092653" {
		t.Errorf("unexpected request ID: %s", id)
	}
}

func TestNewPlanIDUnique(t *testing.T) {
	at := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewPlanID(at)
		if seen[id] {
			t.Fatalf("duplicate plan ID within one second: %s", id)
		}
		seen[id] = true
		if !strings.HasPrefix(id, "PLAN_") {
			t.Fatalf("plan ID missing prefix: %s", id)
		}
	}
}
