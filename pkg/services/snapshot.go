package services

import (
	"context"
	"sync"
	"time"

	"solinntec-site/pkg/content"
)

// Snapshot is the content served to new sessions: the bundled copy until the
// repository has been read or a save has succeeded. Other instances may save
// too, so the repository is read again once the snapshot is older than maxAge.
type Snapshot struct {
	mu        sync.RWMutex
	bundled   content.Tree
	tree      content.Tree
	sha       string
	loaded    bool
	maxAge    time.Duration
	checkedAt time.Time
	now       func() time.Time
}

// NewSnapshot serves bundled until the repository is read. A maxAge of zero
// re-reads the repository for every new session.
func NewSnapshot(bundled content.Tree, maxAge time.Duration) *Snapshot {
	return &Snapshot{
		bundled: bundled,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (s *Snapshot) Current() content.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loaded {
		return s.tree
	}
	return s.bundled
}

// Version is the marker of the revision the snapshot was read at, if known.
func (s *Snapshot) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sha
}

func (s *Snapshot) Set(tree content.Tree, sha string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = tree.Clone()
	s.sha = sha
	s.loaded = true
	s.checkedAt = s.now()
}

// Stale reports whether the repository should be read again.
func (s *Snapshot) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.checkedAt.IsZero() || s.maxAge <= 0 {
		return true
	}
	return s.now().Sub(s.checkedAt) >= s.maxAge
}

// Refresh replaces the snapshot with the repository's current content. A failed
// read still counts as a check, so an unreachable repository is not hit on every request.
func (s *Snapshot) Refresh(ctx context.Context, gateway *Gateway) error {
	tree, sha, err := gateway.Load(ctx)
	if err != nil {
		s.mu.Lock()
		s.checkedAt = s.now()
		s.mu.Unlock()
		return err
	}
	s.Set(tree, sha)
	return nil
}

// Invalidate falls back to the bundled content.
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	s.tree = nil
	s.sha = ""
	s.checkedAt = time.Time{}
}
