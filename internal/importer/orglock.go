package importer

// orglock.go implements the single-writer-per-org discipline for commits.
//
// Each organization gets at most one in-flight import. A second commit
// for the same org fails fast with ErrImportInProgress rather than
// queueing, so callers get an immediate, retryable answer instead of an
// open-ended wait.
//
// The registry also supports graceful shutdown via WaitForDrain, which
// blocks until all in-flight imports complete.

import (
	"context"
	"sync"
	"time"
)

// OrgLocks tracks which organizations have an import in flight.
type OrgLocks struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewOrgLocks creates an empty lock registry.
func NewOrgLocks() *OrgLocks {
	return &OrgLocks{active: make(map[string]struct{})}
}

// TryLock attempts to claim the org's import slot without blocking.
// Returns true if claimed. The caller MUST call Unlock when the import
// completes (use defer).
func (l *OrgLocks) TryLock(orgID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.active[orgID]; held {
		return false
	}
	l.active[orgID] = struct{}{}
	return true
}

// Unlock releases the org's import slot.
// Must be called exactly once for each successful TryLock.
func (l *OrgLocks) Unlock(orgID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, orgID)
}

// ActiveCount returns the number of imports currently in flight.
func (l *OrgLocks) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

// WaitForDrain blocks until all in-flight imports complete or the
// context is cancelled. Used for graceful shutdown.
func (l *OrgLocks) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}
