package model

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	slugMaxRunes = 50
	slugFallback = "item"
	stampLayout  = "20060102_150405"
)

// Slugify converts free-form text into a filesystem-safe slug.
// NFKC normalization, lowercase, [a-z0-9_-] only, length-capped.
func Slugify(text string) string {
	normalized := norm.NFKC.String(text)
	normalized = strings.ToLower(normalized)

	var b strings.Builder
	lastDash := false
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r), r == '-', r == '.', r == '/':
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return slugFallback
	}

	runes := []rune(slug)
	if len(runes) > slugMaxRunes {
		slug = strings.Trim(string(runes[:slugMaxRunes]), "-")
	}
	return slug
}

// NewRequestID composes an approval request identifier from the action
// type and creation time. Uniqueness comes from the timestamp, not from
// caller input; two requests for the same action type never collide as
// long as they are created in different seconds.
func NewRequestID(actionType string, t time.Time) string {
	return fmt.Sprintf("APPROVAL_%s_%s", Slugify(actionType), t.Format(stampLayout))
}

// NewPlanID composes a plan identifier from the creation time plus a
// ULID suffix so plans created within the same second stay distinct.
func NewPlanID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	return fmt.Sprintf("PLAN_%s_%s", t.Format(stampLayout), id.String()[18:])
}

// NewWorkItemID composes a work item identifier from creation time and
// slugified subject (the dedup key contract for signal adapters).
func NewWorkItemID(subject string, t time.Time) string {
	return fmt.Sprintf("ITEM_%s_%s", t.Format(stampLayout), Slugify(subject))
}
