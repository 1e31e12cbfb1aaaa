package importer

import (
	"context"
	"testing"
	"time"
)

func TestOrgLocks_TryLock(t *testing.T) {
	locks := NewOrgLocks()

	if !locks.TryLock("org-1") {
		t.Fatal("first TryLock should succeed")
	}
	if locks.TryLock("org-1") {
		t.Error("second TryLock on same org should fail")
	}
	if !locks.TryLock("org-2") {
		t.Error("TryLock on a different org should succeed")
	}

	locks.Unlock("org-1")
	if !locks.TryLock("org-1") {
		t.Error("TryLock after Unlock should succeed")
	}

	if got := locks.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
}

func TestOrgLocks_WaitForDrain(t *testing.T) {
	locks := NewOrgLocks()
	locks.TryLock("org-1")

	go func() {
		time.Sleep(150 * time.Millisecond)
		locks.Unlock("org-1")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := locks.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain error = %v", err)
	}
}

func TestOrgLocks_WaitForDrainTimeout(t *testing.T) {
	locks := NewOrgLocks()
	locks.TryLock("org-1")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := locks.WaitForDrain(ctx); err == nil {
		t.Error("WaitForDrain should time out while a lock is held")
	}
}
