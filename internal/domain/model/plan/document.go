package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// header is the YAML frontmatter of a rendered plan document. The
// steps list rides in the frontmatter so the executor never has to
// re-parse the markdown body of a machine-generated plan.
type header struct {
	Type       string   `yaml:"type"`
	PlanID     string   `yaml:"plan_id"`
	WorkItem   string   `yaml:"work_item"`
	Created    string   `yaml:"created"`
	Complexity string   `yaml:"complexity"`
	Status     string   `yaml:"status"`
	Steps      []string `yaml:"steps"`
}

// phases is the fixed five-phase template every generated plan carries
var phases = []struct {
	Name      string
	Checklist []string
}{
	{"Analysis", []string{
		"Review task requirements thoroughly",
		"Identify dependencies and prerequisites",
		"Assess risks and potential issues",
		"Determine if approval is needed",
	}},
	{"Preparation", []string{
		"Gather necessary information and resources",
		"Verify permissions and access",
		"Create backups if modifying existing data",
		"Prepare rollback strategy",
	}},
	{"Execution", []string{
		"Execute primary action",
		"Verify action succeeded",
		"Handle any errors or edge cases",
		"Complete secondary actions",
	}},
	{"Validation", []string{
		"Test and verify results",
		"Check for side effects",
		"Confirm objectives met",
	}},
	{"Completion", []string{
		"Archive work item to Done",
		"Log actions taken",
		"Mark plan as completed",
	}},
}

const (
	progressHeading = "## Progress Tracking"
	notesHeading    = "## Execution Notes"
	notesSeed       = "_Notes are appended here as the plan executes._"
)

// Render produces the plan document: YAML frontmatter with the
// authoritative step list, then the generated human-facing view.
func (p *Plan) Render() string {
	h := header{
		Type:       "execution_plan",
		PlanID:     p.id,
		WorkItem:   p.workItemID,
		Created:    p.createdAt.Format(time.RFC3339),
		Complexity: p.complexity.String(),
		Status:     p.status.String(),
	}
	for _, s := range p.steps {
		h.Steps = append(h.Steps, s.Description)
	}

	headerYAML, _ := yaml.Marshal(&h)

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(headerYAML)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# Execution Plan: %s\n\n", p.summary)
	fmt.Fprintf(&b, "**Work Item:** %s\n", p.workItemID)
	fmt.Fprintf(&b, "**Complexity:** %s\n", strings.ToUpper(p.complexity.String()))
	fmt.Fprintf(&b, "**Created:** %s\n\n", p.createdAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## Steps\n\n")
	for _, s := range p.steps {
		fmt.Fprintf(&b, "%d. %s\n", s.Ordinal, s.Description)
	}
	b.WriteString("\n")

	for i, phase := range phases {
		fmt.Fprintf(&b, "## Phase %d: %s\n\n", i+1, phase.Name)
		for _, item := range phase.Checklist {
			fmt.Fprintf(&b, "- [ ] %s\n", item)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Risk Assessment\n\n")
	b.WriteString("- Risk: external sends and financial operations are irreversible once executed.\n")
	b.WriteString("  Mitigation: each such step passes through the approval gate before this plan runs.\n")
	b.WriteString("- Risk: partial execution on step failure.\n")
	b.WriteString("  Mitigation: every step outcome is journaled; failed plans end in Done flagged failed for follow-up.\n\n")

	b.WriteString("## Approval Requirements\n\n")
	b.WriteString("- [ ] Sending email to external recipients\n")
	b.WriteString("- [ ] Financial transactions\n")
	b.WriteString("- [ ] Modifying or deleting important files\n")
	b.WriteString("- [ ] Other sensitive actions\n\n")

	b.WriteString(progressHeading + "\n\n")
	fmt.Fprintf(&b, "**Current Phase:** Phase 1 - Analysis\n")
	fmt.Fprintf(&b, "**Completed Steps:** 0 / %d\n", len(p.steps))
	b.WriteString("**Last Updated:** not started\n\n")

	b.WriteString(notesHeading + "\n\n")
	b.WriteString(notesSeed + "\n")

	return b.String()
}

// ParseDocument reconstructs a plan from a rendered document. The step
// list is read from the frontmatter when present; for hand-authored
// documents without one, the markdown body is parsed with ParseSteps.
func ParseDocument(id string, content string) (*Plan, error) {
	var h header
	if block, ok := frontmatterBlock(content); ok {
		// Tolerate malformed YAML: fall through to body parsing
		_ = yaml.Unmarshal([]byte(block), &h)
	}

	planID := h.PlanID
	if planID == "" {
		planID = id
	}

	var steps []Step
	if len(h.Steps) > 0 {
		for i, desc := range h.Steps {
			steps = append(steps, Step{Ordinal: i + 1, Description: desc})
		}
	} else {
		steps = ParseSteps(content)
	}

	status := Status(h.Status)
	if !status.IsValid() {
		status = StatusPending
	}

	complexity := model.Complexity(h.Complexity)
	if !complexity.IsValid() {
		complexity = model.ComplexityMedium
	}

	createdAt := time.Time{}
	if t, err := time.Parse(time.RFC3339, h.Created); err == nil {
		createdAt = t
	}

	return Reconstruct(planID, h.WorkItem, complexity, status, steps, parseSummary(content), createdAt), nil
}

// UpdateProgressBlock rewrites the progress tracking block of a
// rendered document in place. Safe to call repeatedly.
func UpdateProgressBlock(content, phase string, completed, total int, now time.Time) string {
	block := fmt.Sprintf("%s\n\n**Current Phase:** %s\n**Completed Steps:** %d / %d\n**Last Updated:** %s\n",
		progressHeading, phase, completed, total, now.Format("2006-01-02 15:04:05"))

	start := strings.Index(content, progressHeading)
	if start < 0 {
		// No tracking block yet; add one ahead of the notes section
		return content + "\n" + block
	}

	rest := content[start+len(progressHeading):]
	end := strings.Index(rest, "\n## ")
	if end < 0 {
		return content[:start] + block
	}
	return content[:start] + block + rest[end:]
}

// AppendNote appends a timestamped note to the execution notes
// section. Earlier notes are never truncated.
func AppendNote(content, note string, now time.Time) string {
	entry := fmt.Sprintf("- **%s:** %s", now.Format("2006-01-02 15:04:05"), note)

	if strings.Contains(content, notesSeed) {
		return strings.Replace(content, notesSeed, notesSeed+"\n\n"+entry, 1)
	}
	if strings.Contains(content, notesHeading) {
		return strings.TrimRight(content, "\n") + "\n" + entry + "\n"
	}
	return content + "\n" + notesHeading + "\n\n" + entry + "\n"
}

// AppendCompletion marks the frontmatter status and appends a
// completion block to the document.
func AppendCompletion(content string, success bool, now time.Time) string {
	status := StatusCompleted
	outcome := "Success"
	if !success {
		status = StatusFailed
		outcome = "Failed"
	}

	content = strings.Replace(content, "status: "+StatusPending.String(), "status: "+status.String(), 1)
	return content + fmt.Sprintf("\n---\n\n## Plan Completed\n\n**Status:** %s\n**Completed:** %s\n",
		outcome, now.Format("2006-01-02 15:04:05"))
}

func frontmatterBlock(content string) (string, bool) {
	if !strings.HasPrefix(content, "---\n") {
		return "", false
	}
	rest := content[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", false
	}
	return rest[:end+1], true
}

func parseSummary(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# Execution Plan:") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# Execution Plan:"))
		}
	}
	return ""
}
