package strategy

import (
	"strings"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

// PlanningStrategy decides whether a work item is complex enough to
// deserve a multi-step plan. Implementations must be pure: no side
// effects, same answer for same input. False positives only cost an
// extra plan; false negatives mean the item executes without one.
type PlanningStrategy interface {
	ShouldPlan(body string, source model.SourceType) bool
}

// KeywordPlanningStrategy is the default heuristic: complexity
// keywords, checklist/section density, or risk terms in messages.
type KeywordPlanningStrategy struct {
	complexKeywords []string
	riskTerms       []string
	markerThreshold int
}

// NewKeywordPlanningStrategy creates the default planning heuristic
func NewKeywordPlanningStrategy() *KeywordPlanningStrategy {
	return &KeywordPlanningStrategy{
		complexKeywords: []string{
			"multiple", "several", "complex", "integrate", "build",
			"create system", "implement", "develop", "design",
			"refactor", "migrate", "setup", "configure",
			"approval required", "sensitive", "important",
		},
		riskTerms:       []string{"complaint", "refund", "legal", "contract"},
		markerThreshold: 3,
	}
}

// ShouldPlan reports whether the body warrants a plan
func (s *KeywordPlanningStrategy) ShouldPlan(body string, source model.SourceType) bool {
	lower := strings.ToLower(body)

	for _, kw := range s.complexKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	if strings.Count(lower, "- [ ]") > s.markerThreshold ||
		strings.Count(lower, "\n## ") > s.markerThreshold {
		return true
	}

	if source == model.SourceMessage {
		for _, term := range s.riskTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}

	return false
}
