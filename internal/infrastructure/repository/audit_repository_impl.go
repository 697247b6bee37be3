package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/persistence/file"
)

// AuditLogRepositoryImpl implements the append-only audit log as one
// NDJSON stream per domain under Logs/.
type AuditLogRepositoryImpl struct {
	vault *Vault
}

// NewAuditLogRepository creates an NDJSON-based audit log repository
func NewAuditLogRepository(vault *Vault) *AuditLogRepositoryImpl {
	return &AuditLogRepositoryImpl{vault: vault}
}

func (r *AuditLogRepositoryImpl) streamPath(domain repository.AuditDomain) string {
	return filepath.Join(LogsDir, string(domain)+".ndjson")
}

// Append adds one record to the domain's stream. Records are never
// mutated or deleted afterwards.
func (r *AuditLogRepositoryImpl) Append(ctx context.Context, domain repository.AuditDomain, record repository.AuditRecord) error {
	if record.Timestamp == "" {
		record.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	if err := file.AppendLine(r.vault.FS(), r.vault.Abs(r.streamPath(domain)), line); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Load retrieves all records from the domain's stream. Corrupted
// lines are skipped with a warning so one bad entry never blocks
// reporting.
func (r *AuditLogRepositoryImpl) Load(ctx context.Context, domain repository.AuditDomain) ([]repository.AuditRecord, error) {
	f, err := r.vault.FS().Open(r.vault.Abs(r.streamPath(domain)))
	if err != nil {
		if os.IsNotExist(err) {
			return []repository.AuditRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open audit stream %s: %w", domain, err)
	}
	defer f.Close()

	var records []repository.AuditRecord
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record repository.AuditRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: skipping corrupted audit line %d in %s: %v\n", lineNum, domain, err)
			continue
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit stream %s: %w", domain, err)
	}
	return records, nil
}

var _ repository.AuditLogRepository = (*AuditLogRepositoryImpl)(nil)
var _ repository.WorkItemRepository = (*WorkItemRepositoryImpl)(nil)
var _ repository.ApprovalRepository = (*ApprovalRepositoryImpl)(nil)
var _ repository.PlanRepository = (*PlanRepositoryImpl)(nil)
