package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/workitem"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/persistence/file"
)

// WorkItemRepositoryImpl stores work items as markdown documents in
// their stage folders. The folder a document lives in is the stage;
// the document body carries no stage field of its own.
type WorkItemRepositoryImpl struct {
	vault *Vault
}

// NewWorkItemRepository creates a file-based work item repository
func NewWorkItemRepository(vault *Vault) *WorkItemRepositoryImpl {
	return &WorkItemRepositoryImpl{vault: vault}
}

func workItemName(id string) string {
	return id + ".md"
}

// Save writes the item into its current stage folder, refusing to
// overwrite an existing document with the same ID (the dedup key
// contract for signal adapters).
func (r *WorkItemRepositoryImpl) Save(ctx context.Context, item *workitem.WorkItem) (repository.DocRef, error) {
	ref := repository.DocRef{Dir: item.Stage().Dir(), Name: workItemName(item.ID())}

	if _, err := r.locate(item.ID()); err == nil {
		return repository.DocRef{}, fmt.Errorf("work item %s already exists", item.ID())
	}

	content := renderWorkItem(item)
	if err := file.WriteFileAtomic(r.vault.FS(), r.vault.Abs(ref.Path()), []byte(content)); err != nil {
		return repository.DocRef{}, err
	}
	return ref, nil
}

// Find loads an item by ID, searching all stage folders
func (r *WorkItemRepositoryImpl) Find(ctx context.Context, id string) (*workitem.WorkItem, error) {
	ref, err := r.locate(id)
	if err != nil {
		return nil, err
	}
	return r.load(ref)
}

// ListByStage enumerates items currently in a stage
func (r *WorkItemRepositoryImpl) ListByStage(ctx context.Context, stage model.Stage) ([]*workitem.WorkItem, error) {
	names, err := r.vault.listDocs(stage.Dir(), "ITEM_")
	if err != nil {
		return nil, err
	}

	var items []*workitem.WorkItem
	for _, name := range names {
		item, err := r.load(repository.DocRef{Dir: stage.Dir(), Name: name})
		if err != nil {
			// Malformed documents never abort a scan
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Move atomically relocates an item's document to another stage
// folder after validating the transition.
func (r *WorkItemRepositoryImpl) Move(ctx context.Context, id string, to model.Stage) error {
	ref, err := r.locate(id)
	if err != nil {
		return err
	}

	item, err := r.load(ref)
	if err != nil {
		return err
	}
	if err := item.AdvanceTo(to); err != nil {
		return err
	}

	// Rename is the atomicity primitive; the content is untouched
	// because the destination folder alone records the new stage.
	dest := repository.DocRef{Dir: to.Dir(), Name: ref.Name}
	if err := r.vault.FS().MkdirAll(r.vault.Abs(to.Dir()), 0o755); err != nil {
		return err
	}
	if err := r.vault.FS().Rename(r.vault.Abs(ref.Path()), r.vault.Abs(dest.Path())); err != nil {
		return fmt.Errorf("failed to relocate %s: %w", ref.Path(), err)
	}
	return nil
}

func (r *WorkItemRepositoryImpl) locate(id string) (repository.DocRef, error) {
	name := workItemName(id)
	for _, s := range []model.Stage{
		model.StageInbox, model.StagePlanning, model.StagePendingApproval,
		model.StageApproved, model.StageRejected, model.StageDone,
	} {
		ref := repository.DocRef{Dir: s.Dir(), Name: name}
		if ok, _ := afero.Exists(r.vault.FS(), r.vault.Abs(ref.Path())); ok {
			return ref, nil
		}
	}
	return repository.DocRef{}, repository.ErrNotFound
}

func (r *WorkItemRepositoryImpl) load(ref repository.DocRef) (*workitem.WorkItem, error) {
	data, err := afero.ReadFile(r.vault.FS(), r.vault.Abs(ref.Path()))
	if err != nil {
		return nil, repository.ErrNotFound
	}
	stage, ok := model.StageFromDir(ref.Dir)
	if !ok {
		return nil, fmt.Errorf("unknown stage folder: %s", ref.Dir)
	}
	return parseWorkItem(strings.TrimSuffix(ref.Name, ".md"), string(data), stage), nil
}

func renderWorkItem(item *workitem.WorkItem) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("type: work_item\n")
	fmt.Fprintf(&b, "source: %s\n", item.Source())
	fmt.Fprintf(&b, "priority: %s\n", item.Priority())
	fmt.Fprintf(&b, "created: %s\n", item.CreatedAt().Format(time.RFC3339))
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", item.Subject())
	b.WriteString(item.Body())
	b.WriteString("\n")
	return b.String()
}

func parseWorkItem(id, content string, stage model.Stage) *workitem.WorkItem {
	source := model.SourceManual
	priority := model.PriorityMedium
	createdAt := time.Time{}
	subject := ""

	lines := strings.Split(content, "\n")
	inHeader := len(lines) > 0 && strings.TrimSpace(lines[0]) == "---"
	bodyStart := 0

	for i, line := range lines {
		if i == 0 && inHeader {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if inHeader {
			if trimmed == "---" {
				inHeader = false
				continue
			}
			parts := strings.SplitN(trimmed, ":", 2)
			if len(parts) != 2 {
				continue
			}
			key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			switch key {
			case "source":
				if s := model.SourceType(value); s.IsValid() {
					source = s
				}
			case "priority":
				if p := model.Priority(value); p.IsValid() {
					priority = p
				}
			case "created":
				if t, err := time.Parse(time.RFC3339, value); err == nil {
					createdAt = t
				}
			}
			continue
		}
		if subject == "" && strings.HasPrefix(trimmed, "# ") {
			subject = strings.TrimPrefix(trimmed, "# ")
			bodyStart = i + 1
			break
		}
	}

	body := ""
	if bodyStart > 0 && bodyStart < len(lines) {
		body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	}

	return workitem.Reconstruct(id, source, priority, subject, body, createdAt, stage)
}
