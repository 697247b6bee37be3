package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/lock"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
)

func newTestRepo(t *testing.T) repository.RunLockRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "locks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunLockRepository(db)
}

func TestAcquireAndRelease(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	lockID, _ := lock.NewLockID("vault-writer")

	l, err := repo.Acquire(ctx, lockID, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, l, "first acquire should succeed")

	// Same live process holds it: second acquire is refused
	second, err := repo.Acquire(ctx, lockID, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second, "held lock must not be re-acquired")

	require.NoError(t, repo.Release(ctx, lockID))

	third, err := repo.Acquire(ctx, lockID, time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, third, "released lock should be acquirable")
}

func TestFindMissing(t *testing.T) {
	repo := newTestRepo(t)
	lockID, _ := lock.NewLockID("vault-writer")

	_, err := repo.Find(context.Background(), lockID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReleaseMissing(t *testing.T) {
	repo := newTestRepo(t)
	lockID, _ := lock.NewLockID("vault-writer")

	err := repo.Release(context.Background(), lockID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAcquireReclaimsExpiredLock(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "locks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewRunLockRepository(db)
	ctx := context.Background()
	lockID, _ := lock.NewLockID("vault-writer")

	// Plant an expired lock held by this (live) process
	now := time.Now().UTC()
	_, err = db.ExecContext(ctx,
		`INSERT INTO run_locks (lock_id, pid, hostname, acquired_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		lockID.String(), 1, "dead-host",
		now.Add(-2*time.Hour).Format(time.RFC3339),
		now.Add(-time.Hour).Format(time.RFC3339),
	)
	require.NoError(t, err)

	l, err := repo.Acquire(ctx, lockID, time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, l, "expired lock must be reclaimed")
}
