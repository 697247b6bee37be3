package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
)

// Vault is the shared document store: one folder per lifecycle stage
// plus the working Plans folder and the Logs archive. All repositories
// in this package operate on it through afero so tests can run against
// an in-memory filesystem.
type Vault struct {
	fs   afero.Fs
	root string
}

// PlansDir is the working folder for plans not yet submitted
const PlansDir = "Plans"

// LogsDir holds the audit streams and decision archives
const LogsDir = "Logs"

// NewVault creates a vault handle rooted at root
func NewVault(fs afero.Fs, root string) *Vault {
	return &Vault{fs: fs, root: root}
}

// EnsureLayout creates the stage folders, Plans and Logs
func (v *Vault) EnsureLayout() error {
	dirs := []string{PlansDir, LogsDir}
	for _, s := range []model.Stage{
		model.StageInbox, model.StagePlanning, model.StagePendingApproval,
		model.StageApproved, model.StageRejected, model.StageDone,
	} {
		dirs = append(dirs, s.Dir())
	}

	for _, d := range dirs {
		if err := v.fs.MkdirAll(filepath.Join(v.root, d), 0o755); err != nil {
			return fmt.Errorf("failed to create vault folder %s: %w", d, err)
		}
	}
	return nil
}

// FS exposes the underlying filesystem
func (v *Vault) FS() afero.Fs {
	return v.fs
}

// Root returns the vault root path
func (v *Vault) Root() string {
	return v.root
}

// Abs resolves a vault-relative path
func (v *Vault) Abs(rel string) string {
	return filepath.Join(v.root, rel)
}

// listDocs enumerates markdown documents in a vault folder matching a
// filename prefix, sorted by name (creation order, given the
// timestamped naming scheme). A missing folder yields an empty list.
func (v *Vault) listDocs(dir, prefix string) ([]string, error) {
	entries, err := afero.ReadDir(v.fs, v.Abs(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".md") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
