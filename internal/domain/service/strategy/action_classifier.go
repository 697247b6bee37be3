package strategy

import (
	"strings"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

// ActionClassifier maps a step description to its dispatch category
type ActionClassifier interface {
	Classify(description string) model.ActionKind
}

// KeywordClassifier is the default keyword heuristic. Kinds are
// checked in a fixed priority order (email before financial before
// generate before read); the order is a deliberate tie-break and must
// stay stable so repeated runs classify identically.
type KeywordClassifier struct {
	order []struct {
		kind     model.ActionKind
		keywords []string
	}
}

// NewKeywordClassifier creates the default step classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		order: []struct {
			kind     model.ActionKind
			keywords []string
		}{
			{model.ActionEmail, []string{"email", "send email", "reply", "respond"}},
			{model.ActionFinancial, []string{"financial", "quickbooks", "expense", "balance", "transaction", "accounting"}},
			{model.ActionGenerate, []string{"generate", "create", "draft", "write"}},
			{model.ActionRead, []string{"read", "review", "analyze", "check"}},
		},
	}
}

// Classify returns the first kind whose keyword set matches
func (c *KeywordClassifier) Classify(description string) model.ActionKind {
	lower := strings.ToLower(description)

	for _, entry := range c.order {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.kind
			}
		}
	}
	return model.ActionOther
}
