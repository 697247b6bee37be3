package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/plan"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/persistence/file"
)

// PlanRepositoryImpl stores plan documents. Plans are born in the
// working Plans folder, submitted into Pending_Approval, relocated to
// Approved by a human, and parked in Done by the executor.
type PlanRepositoryImpl struct {
	vault *Vault
}

// NewPlanRepository creates a file-based plan repository
func NewPlanRepository(vault *Vault) *PlanRepositoryImpl {
	return &PlanRepositoryImpl{vault: vault}
}

// Save writes a rendered plan into the working Plans folder
func (r *PlanRepositoryImpl) Save(ctx context.Context, p *plan.Plan) (repository.DocRef, error) {
	ref := repository.DocRef{Dir: PlansDir, Name: p.ID() + ".md"}
	if err := file.WriteFileAtomic(r.vault.FS(), r.vault.Abs(ref.Path()), []byte(p.Render())); err != nil {
		return repository.DocRef{}, err
	}
	return ref, nil
}

// Load reads and parses the document at ref
func (r *PlanRepositoryImpl) Load(ctx context.Context, ref repository.DocRef) (*plan.Plan, error) {
	raw, err := r.LoadRaw(ctx, ref)
	if err != nil {
		return nil, err
	}
	return plan.ParseDocument(strings.TrimSuffix(ref.Name, ".md"), raw)
}

// LoadRaw reads the document text without parsing
func (r *PlanRepositoryImpl) LoadRaw(ctx context.Context, ref repository.DocRef) (string, error) {
	data, err := afero.ReadFile(r.vault.FS(), r.vault.Abs(ref.Path()))
	if err != nil {
		return "", repository.ErrNotFound
	}
	return string(data), nil
}

// Rewrite atomically replaces the document content at ref
func (r *PlanRepositoryImpl) Rewrite(ctx context.Context, ref repository.DocRef, content string) error {
	return file.WriteFileAtomic(r.vault.FS(), r.vault.Abs(ref.Path()), []byte(content))
}

// ListApproved enumerates plan documents in the approved stage folder
func (r *PlanRepositoryImpl) ListApproved(ctx context.Context) ([]repository.DocRef, error) {
	names, err := r.vault.listDocs(model.StageApproved.Dir(), "PLAN_")
	if err != nil {
		return nil, err
	}

	refs := make([]repository.DocRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, repository.DocRef{Dir: model.StageApproved.Dir(), Name: name})
	}
	return refs, nil
}

// Submit moves a plan from the working folder into Pending_Approval
func (r *PlanRepositoryImpl) Submit(ctx context.Context, ref repository.DocRef) (repository.DocRef, error) {
	if ref.Dir != PlansDir {
		return repository.DocRef{}, fmt.Errorf("only plans in %s can be submitted", PlansDir)
	}
	return r.relocate(ref, model.StagePendingApproval.Dir())
}

// Relocate atomically moves the document to a stage folder
func (r *PlanRepositoryImpl) Relocate(ctx context.Context, ref repository.DocRef, to model.Stage) (repository.DocRef, error) {
	return r.relocate(ref, to.Dir())
}

func (r *PlanRepositoryImpl) relocate(ref repository.DocRef, toDir string) (repository.DocRef, error) {
	dest := repository.DocRef{Dir: toDir, Name: ref.Name}

	if ok, _ := afero.Exists(r.vault.FS(), r.vault.Abs(ref.Path())); !ok {
		return repository.DocRef{}, repository.ErrNotFound
	}
	if err := r.vault.FS().MkdirAll(r.vault.Abs(toDir), 0o755); err != nil {
		return repository.DocRef{}, err
	}
	if err := r.vault.FS().Rename(r.vault.Abs(ref.Path()), r.vault.Abs(dest.Path())); err != nil {
		return repository.DocRef{}, fmt.Errorf("failed to relocate %s: %w", ref.Path(), err)
	}
	return dest, nil
}
