// Package session keeps the per-browser editing state between requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"solinntec-site/pkg/content"
)

// ErrSaveInProgress is returned by Update while a save holds the session.
var ErrSaveInProgress = errors.New("save already in progress")

// UpdateFunc computes the next state of a session from its current one;
// ok is false when the session has no stored state yet.
type UpdateFunc func(state content.State, ok bool) (content.State, error)

// Registry stores the content.State of each editing session.
type Registry interface {
	// Load returns the state of a session; ok is false when none is stored.
	Load(ctx context.Context, id string) (state content.State, ok bool, err error)
	Save(ctx context.Context, id string, state content.State) error
	// Update applies fn atomically with respect to other updates and to the
	// save lock of the session. It fails with ErrSaveInProgress while the lock is held.
	Update(ctx context.Context, id string, fn UpdateFunc) error
	Delete(ctx context.Context, id string) error
	// AcquireSave marks a save in flight. It returns false when one already is.
	AcquireSave(ctx context.Context, id string) (bool, error)
	ReleaseSave(ctx context.Context, id string) error
	// Saving reports whether a save is in flight for the session.
	Saving(ctx context.Context, id string) (bool, error)
}

type memoryEntry struct {
	state   content.State
	touched time.Time
}

// Memory is an in-process Registry for single-instance deployments.
type Memory struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[string]memoryEntry
	saving map[string]bool
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[string]memoryEntry),
		saving: make(map[string]bool),
	}
}

func (m *Memory) Load(_ context.Context, id string) (content.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	entry, ok := m.states[id]
	if !ok {
		return content.State{}, false, nil
	}
	entry.touched = m.now()
	m.states[id] = entry
	return entry.state, true, nil
}

func (m *Memory) Save(_ context.Context, id string, state content.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[id] = memoryEntry{state: state, touched: m.now()}
	return nil
}

func (m *Memory) Update(_ context.Context, id string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saving[id] {
		return ErrSaveInProgress
	}
	m.sweep()
	entry, ok := m.states[id]
	next, err := fn(entry.state, ok)
	if err != nil {
		return err
	}
	m.states[id] = memoryEntry{state: next, touched: m.now()}
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, id)
	return nil
}

func (m *Memory) AcquireSave(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saving[id] {
		return false, nil
	}
	m.saving[id] = true
	return true, nil
}

func (m *Memory) ReleaseSave(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.saving, id)
	return nil
}

func (m *Memory) Saving(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saving[id], nil
}

// sweep drops idle sessions. Caller holds m.mu.
func (m *Memory) sweep() {
	if m.ttl <= 0 {
		return
	}
	cutoff := m.now().Add(-m.ttl)
	for id, entry := range m.states {
		if entry.touched.Before(cutoff) {
			delete(m.states, id)
		}
	}
}
