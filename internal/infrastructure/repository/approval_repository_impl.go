package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/approval"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/persistence/file"
)

// ApprovalRepositoryImpl stores approval requests as markdown
// documents. The folder a request sits in carries the human decision.
type ApprovalRepositoryImpl struct {
	vault *Vault
}

// NewApprovalRepository creates a file-based approval repository
func NewApprovalRepository(vault *Vault) *ApprovalRepositoryImpl {
	return &ApprovalRepositoryImpl{vault: vault}
}

// Save writes a rendered request into the pending folder
func (r *ApprovalRepositoryImpl) Save(ctx context.Context, req *approval.Request) (repository.DocRef, error) {
	ref := repository.DocRef{Dir: model.StagePendingApproval.Dir(), Name: req.ID() + ".md"}
	if err := file.WriteFileAtomic(r.vault.FS(), r.vault.Abs(ref.Path()), []byte(req.Render())); err != nil {
		return repository.DocRef{}, err
	}
	return ref, nil
}

// Load reads and parses the document at ref
func (r *ApprovalRepositoryImpl) Load(ctx context.Context, ref repository.DocRef) (*approval.Request, error) {
	data, err := afero.ReadFile(r.vault.FS(), r.vault.Abs(ref.Path()))
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return approval.ParseDocument(strings.TrimSuffix(ref.Name, ".md"), string(data))
}

// ListByStage enumerates request documents in a stage folder
func (r *ApprovalRepositoryImpl) ListByStage(ctx context.Context, stage model.Stage) ([]repository.DocRef, error) {
	names, err := r.vault.listDocs(stage.Dir(), "APPROVAL_")
	if err != nil {
		return nil, err
	}

	refs := make([]repository.DocRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, repository.DocRef{Dir: stage.Dir(), Name: name})
	}
	return refs, nil
}

// Archive copies the document into Logs/<decision>/, leaving the
// source in place. The copy is the intentional exception to the
// move-only rule: it preserves the decided document for audit.
func (r *ApprovalRepositoryImpl) Archive(ctx context.Context, ref repository.DocRef, decision approval.Status) error {
	data, err := afero.ReadFile(r.vault.FS(), r.vault.Abs(ref.Path()))
	if err != nil {
		return repository.ErrNotFound
	}

	archivePath := filepath.Join(LogsDir, decision.String(), ref.Name)
	return file.WriteFileAtomic(r.vault.FS(), r.vault.Abs(archivePath), data)
}

// Relocate atomically moves the document to another stage folder
func (r *ApprovalRepositoryImpl) Relocate(ctx context.Context, ref repository.DocRef, to model.Stage) (repository.DocRef, error) {
	dest := repository.DocRef{Dir: to.Dir(), Name: ref.Name}

	if ok, _ := afero.Exists(r.vault.FS(), r.vault.Abs(ref.Path())); !ok {
		return repository.DocRef{}, repository.ErrNotFound
	}
	if err := r.vault.FS().MkdirAll(r.vault.Abs(to.Dir()), 0o755); err != nil {
		return repository.DocRef{}, err
	}
	if err := r.vault.FS().Rename(r.vault.Abs(ref.Path()), r.vault.Abs(dest.Path())); err != nil {
		return repository.DocRef{}, fmt.Errorf("failed to relocate %s: %w", ref.Path(), err)
	}
	return dest, nil
}

// Remove deletes the source document
func (r *ApprovalRepositoryImpl) Remove(ctx context.Context, ref repository.DocRef) error {
	if ok, _ := afero.Exists(r.vault.FS(), r.vault.Abs(ref.Path())); !ok {
		return repository.ErrNotFound
	}
	return r.vault.FS().Remove(r.vault.Abs(ref.Path()))
}
