package lock

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// LockID identifies a lock scope, e.g. "vault-writer"
type LockID struct {
	value string
}

// NewLockID creates a validated lock ID
func NewLockID(value string) (LockID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return LockID{}, errors.New("lock ID cannot be empty")
	}
	return LockID{value: trimmed}, nil
}

// String returns the string representation
func (l LockID) String() string {
	return l.value
}

// Equals checks if two LockIDs are equal
func (l LockID) Equals(other LockID) bool {
	return l.value == other.value
}

// RunLock enforces the single-writer assumption for the vault: only
// one loop process may mutate the shared document store at a time.
type RunLock struct {
	lockID     LockID
	pid        int
	hostname   string
	acquiredAt time.Time
	expiresAt  time.Time
}

// NewRunLock creates a lock for the current process
func NewRunLock(lockID LockID, ttl time.Duration) (*RunLock, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}

	now := time.Now().UTC()
	return &RunLock{
		lockID:     lockID,
		pid:        os.Getpid(),
		hostname:   hostname,
		acquiredAt: now,
		expiresAt:  now.Add(ttl),
	}, nil
}

// ReconstructRunLock rebuilds a lock from persisted data
func ReconstructRunLock(lockID LockID, pid int, hostname string, acquiredAt, expiresAt time.Time) *RunLock {
	return &RunLock{
		lockID:     lockID,
		pid:        pid,
		hostname:   hostname,
		acquiredAt: acquiredAt,
		expiresAt:  expiresAt,
	}
}

// IsExpired checks if the lock has expired
func (l *RunLock) IsExpired() bool {
	return time.Now().UTC().After(l.expiresAt)
}

// Extend pushes the expiry forward
func (l *RunLock) Extend(d time.Duration) {
	l.expiresAt = l.expiresAt.Add(d)
}

// Getters
func (l *RunLock) LockID() LockID           { return l.lockID }
func (l *RunLock) PID() int                 { return l.pid }
func (l *RunLock) Hostname() string         { return l.hostname }
func (l *RunLock) AcquiredAt() time.Time    { return l.acquiredAt }
func (l *RunLock) ExpiresAt() time.Time     { return l.expiresAt }
func (l *RunLock) Remaining() time.Duration { return time.Until(l.expiresAt) }
