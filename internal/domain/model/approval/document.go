package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

const (
	frontmatterDelim = "---"
	detailsHeading   = "## Action Details"
	timeLayout       = time.RFC3339
)

// Render produces the human-facing approval document. The layout is a
// contract: ParseDocument reconstructs the request from exactly this
// shape, and humans decide by relocating the file, so the instructions
// at the bottom are part of the interface.
func (r *Request) Render() string {
	var b strings.Builder

	b.WriteString(frontmatterDelim + "\n")
	b.WriteString("type: approval_request\n")
	fmt.Fprintf(&b, "action: %s\n", r.actionType)
	fmt.Fprintf(&b, "created: %s\n", r.createdAt.Format(timeLayout))
	fmt.Fprintf(&b, "expires: %s\n", r.expiresAt.Format(timeLayout))
	fmt.Fprintf(&b, "priority: %s\n", r.priority)
	fmt.Fprintf(&b, "status: %s\n", r.status)
	b.WriteString(frontmatterDelim + "\n\n")

	fmt.Fprintf(&b, "# Approval Required: %s\n\n", r.actionType)

	b.WriteString(detailsHeading + "\n\n")
	for _, d := range r.details {
		fmt.Fprintf(&b, "- **%s:** %s\n", titleKey(d.Key), d.Value)
	}
	b.WriteString("\n")

	b.WriteString("## Reason\n\n")
	b.WriteString(r.reason + "\n\n")

	fmt.Fprintf(&b, "## Priority: %s\n\n", strings.ToUpper(r.priority.String()))
	fmt.Fprintf(&b, "**Created:** %s\n", r.createdAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Expires:** %s\n\n", r.expiresAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## How to Decide\n\n")
	b.WriteString("- Move this file to `Approved/` to let the loop execute the action.\n")
	b.WriteString("- Move this file to `Rejected/` to cancel it.\n")
	b.WriteString("- Leave it in `Pending_Approval/` to keep deciding; it expires at the time above.\n\n")

	fmt.Fprintf(&b, "Request ID: %s\n", r.id)

	return b.String()
}

// ParseDocument reconstructs a request from a rendered document. Header
// parsing is tolerant: a missing or unparsable timestamp yields a zero
// time (which IsExpired treats as not expired), and a malformed details
// section degrades to an empty detail set. Only a completely absent
// action type is an error, since nothing can be executed without it.
func ParseDocument(id string, content string) (*Request, error) {
	fields := parseFrontmatter(content)

	actionType := fields["action"]
	if actionType == "" {
		return nil, fmt.Errorf("document %s: no action type", id)
	}

	createdAt := parseTimeLenient(fields["created"])
	expiresAt := parseTimeLenient(fields["expires"])

	priority := model.Priority(fields["priority"])
	if !priority.IsValid() {
		priority = model.PriorityMedium
	}

	status := Status(fields["status"])
	if !status.IsValid() {
		status = StatusPending
	}

	return Reconstruct(
		id,
		actionType,
		ParseDetails(content),
		parseReason(content),
		priority,
		createdAt,
		expiresAt,
		status,
	), nil
}

// ParseDetails extracts the key/value block under the Action Details
// heading. Lines that do not match the rendered shape are skipped;
// a missing section yields an empty set, never an error.
func ParseDetails(content string) []Detail {
	var details []Detail
	inSection := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, detailsHeading) {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(trimmed, "##") {
			break
		}
		if !inSection || !strings.HasPrefix(trimmed, "- **") {
			continue
		}

		parts := strings.SplitN(strings.TrimPrefix(trimmed, "- **"), ":**", 2)
		if len(parts) != 2 {
			continue
		}
		details = append(details, Detail{
			Key:   normalizeKey(parts[0]),
			Value: strings.TrimSpace(parts[1]),
		})
	}

	return details
}

func parseFrontmatter(content string) map[string]string {
	fields := make(map[string]string)
	lines := strings.Split(content, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelim {
		return fields
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == frontmatterDelim {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		fields[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return fields
}

func parseReason(content string) string {
	var reason []string
	inSection := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "## Reason" {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(trimmed, "##") {
			break
		}
		if inSection && trimmed != "" {
			reason = append(reason, trimmed)
		}
	}

	return strings.Join(reason, "\n")
}

// parseTimeLenient returns the zero time on any parse failure; the
// expiry check fails open on a zero time.
func parseTimeLenient(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// titleKey renders a snake_case detail key as a readable title
func titleKey(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// normalizeKey is the inverse of titleKey
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
}
