package plan

import "strings"

// ParseSteps extracts the ordered step list from free-form plan text.
// It scans for a section introduced by a "## Steps" or "## Actions"
// heading; within it, lines starting with a digit, "-", or "*" are one
// step each, with leading list punctuation and checkbox markers
// stripped. The section ends at the next "##" heading. Text with no
// recognizable steps section yields an empty list.
//
// ParseSteps is a pure function: the same text always yields the same
// ordered list.
func ParseSteps(text string) []Step {
	var steps []Step
	inSection := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "## Steps") || strings.HasPrefix(line, "## Actions") {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(line, "##") {
			break
		}
		if !inSection || line == "" {
			continue
		}

		first := line[0]
		if !(first >= '0' && first <= '9') && first != '-' && first != '*' {
			continue
		}

		description := strings.TrimLeft(line, "0123456789.-* \t")
		for _, box := range []string{"[ ]", "[x]", "[X]"} {
			if strings.HasPrefix(description, box) {
				description = strings.TrimSpace(description[len(box):])
				break
			}
		}
		if description == "" {
			continue
		}

		steps = append(steps, Step{
			Ordinal:     len(steps) + 1,
			Description: description,
		})
	}

	return steps
}
