package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/lock"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
)

// RunLockRepositoryImpl implements repository.RunLockRepository with
// SQLite. It backs the single-writer assumption: one loop process per
// vault, with stale locks from dead processes reclaimed automatically.
type RunLockRepositoryImpl struct {
	db *sql.DB
}

// NewRunLockRepository creates a SQLite-based run lock repository
func NewRunLockRepository(db *sql.DB) repository.RunLockRepository {
	return &RunLockRepositoryImpl{db: db}
}

// Acquire attempts to acquire the lock with atomic stale lock cleanup.
// Returns (nil, nil) when an active process already holds it.
func (r *RunLockRepositoryImpl) Acquire(ctx context.Context, lockID lock.LockID, ttl time.Duration) (*lock.RunLock, error) {
	now := time.Now().UTC()

	existing, err := r.Find(ctx, lockID)
	if err == nil {
		isStale := existing.IsExpired() || !isProcessRunning(existing.PID())
		if !isStale {
			return nil, nil
		}

		// Delete the stale lock; losing the race to another process
		// deleting it first is fine.
		result, _ := r.db.ExecContext(ctx,
			`DELETE FROM run_locks WHERE lock_id = ? AND (expires_at < ? OR pid = ?)`,
			lockID.String(),
			now.Format(time.RFC3339),
			existing.PID(),
		)
		if result != nil {
			rows, _ := result.RowsAffected()
			if rows == 0 {
				if stillHeld, _ := r.Find(ctx, lockID); stillHeld != nil {
					return nil, nil
				}
			}
		}
	}

	runLock, err := lock.NewRunLock(lockID, ttl)
	if err != nil {
		return nil, fmt.Errorf("create run lock: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO run_locks (lock_id, pid, hostname, acquired_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		runLock.LockID().String(),
		runLock.PID(),
		runLock.Hostname(),
		runLock.AcquiredAt().Format(time.RFC3339),
		runLock.ExpiresAt().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			// Another process acquired the lock first
			return nil, nil
		}
		return nil, fmt.Errorf("insert run lock: %w", err)
	}

	return runLock, nil
}

// Release frees the lock
func (r *RunLockRepositoryImpl) Release(ctx context.Context, lockID lock.LockID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM run_locks WHERE lock_id = ?`, lockID.String())
	if err != nil {
		return fmt.Errorf("delete run lock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Find retrieves the current lock, repository.ErrNotFound when absent
func (r *RunLockRepositoryImpl) Find(ctx context.Context, lockID lock.LockID) (*lock.RunLock, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT lock_id, pid, hostname, acquired_at, expires_at FROM run_locks WHERE lock_id = ?`,
		lockID.String(),
	)

	var (
		lockIDStr  string
		pid        int
		hostname   string
		acquiredAt string
		expiresAt  string
	)
	if err := row.Scan(&lockIDStr, &pid, &hostname, &acquiredAt, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan run lock: %w", err)
	}

	acquiredAtTime, err := time.Parse(time.RFC3339, acquiredAt)
	if err != nil {
		return nil, fmt.Errorf("parse acquired_at: %w", err)
	}
	expiresAtTime, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	lid, err := lock.NewLockID(lockIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid lock ID: %w", err)
	}

	return lock.ReconstructRunLock(lid, pid, hostname, acquiredAtTime, expiresAtTime), nil
}

// isProcessRunning checks if a process with the given PID is running
// (Unix-like systems)
func isProcessRunning(pid int) bool {
	cmd := exec.Command("ps", "-p", strconv.Itoa(pid))
	return cmd.Run() == nil
}

// isUniqueConstraintError checks for a SQLite UNIQUE violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}
