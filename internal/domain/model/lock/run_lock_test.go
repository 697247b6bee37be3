package lock

import (
	"testing"
	"time"
)

func TestNewLockID(t *testing.T) {
	if _, err := NewLockID(""); err == nil {
		t.Error("empty lock ID should fail")
	}
	if _, err := NewLockID("   "); err == nil {
		t.Error("blank lock ID should fail")
	}

	id, err := NewLockID("vault-writer")
	if err != nil {
		t.Fatalf("NewLockID() unexpected error: %v", err)
	}
	if id.String() != "vault-writer" {
		t.Errorf("String() = %q", id.String())
	}
}

func TestNewRunLock(t *testing.T) {
	id, _ := NewLockID("vault-writer")
	ttl := 5 * time.Minute

	l, err := NewRunLock(id, ttl)
	if err != nil {
		t.Fatalf("NewRunLock() unexpected error: %v", err)
	}

	if l.PID() <= 0 {
		t.Error("PID() should be positive")
	}
	if l.Hostname() == "" {
		t.Error("Hostname() should not be empty")
	}
	want := l.AcquiredAt().Add(ttl)
	if !l.ExpiresAt().Equal(want) {
		t.Errorf("ExpiresAt() = %v, want %v", l.ExpiresAt(), want)
	}
	if l.IsExpired() {
		t.Error("fresh lock should not be expired")
	}
}

func TestRunLockExpiry(t *testing.T) {
	id, _ := NewLockID("vault-writer")
	now := time.Now().UTC()

	stale := ReconstructRunLock(id, 12345, "host", now.Add(-2*time.Hour), now.Add(-time.Hour))
	if !stale.IsExpired() {
		t.Error("lock past its expiry should be expired")
	}

	stale.Extend(3 * time.Hour)
	if stale.IsExpired() {
		t.Error("extended lock should not be expired")
	}
}
