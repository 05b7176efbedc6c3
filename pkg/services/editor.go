package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"solinntec-site/pkg/content"
	"solinntec-site/pkg/session"
)

// Editor drives the editing sessions: each session owns a content.Store kept
// in the registry until it is saved or discarded.
type Editor struct {
	registry session.Registry
	snapshot *Snapshot
	gateway  *Gateway
}

// NewEditor wires the editing flow. gateway may be nil when no backend is configured;
// saves then fail with ErrNotConfigured.
func NewEditor(registry session.Registry, snapshot *Snapshot, gateway *Gateway) *Editor {
	return &Editor{
		registry: registry,
		snapshot: snapshot,
		gateway:  gateway,
	}
}

func (e *Editor) Snapshot() *Snapshot {
	return e.snapshot
}

// Open returns the session's store, starting from the snapshot when the session has none.
func (e *Editor) Open(ctx context.Context, sid string) (*content.Store, error) {
	state, ok, err := e.registry.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return content.NewStore(e.baseline(ctx)), nil
	}
	return content.Restore(state), nil
}

// baseline is the tree a new session starts from, re-read from the
// repository when the snapshot is stale.
func (e *Editor) baseline(ctx context.Context) content.Tree {
	if e.gateway != nil && e.snapshot.Stale() {
		if err := e.snapshot.Refresh(ctx, e.gateway); err != nil {
			slog.Warn("serving cached content, repository not readable", "error", err)
		}
	}
	return e.snapshot.Current()
}

// errNoBaseline asks update to read the baseline outside the registry update,
// so a repository read never runs while the registry holds the session.
var errNoBaseline = errors.New("session has no state yet")

// update applies fn to the session's store as one atomic registry update.
func (e *Editor) update(ctx context.Context, sid string, fn func(*content.Store) error) (*content.Store, error) {
	var (
		store    *content.Store
		base     content.Tree
		haveBase bool
	)
	for {
		err := e.registry.Update(ctx, sid, func(state content.State, ok bool) (content.State, error) {
			switch {
			case ok:
				store = content.Restore(state)
			case haveBase:
				store = content.NewStore(base)
			default:
				return content.State{}, errNoBaseline
			}
			if err := fn(store); err != nil {
				return content.State{}, err
			}
			return store.State(), nil
		})
		if errors.Is(err, errNoBaseline) && !haveBase {
			base, haveBase = e.baseline(ctx), true
			continue
		}
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// Edit replaces one leaf of the session's tree. Edits are refused with
// ErrSaveInProgress while the session is being saved.
func (e *Editor) Edit(ctx context.Context, sid, path string, value any) (*content.Store, error) {
	return e.update(ctx, sid, func(store *content.Store) error {
		if current, err := content.Read(store.Tree(), path); err == nil && content.IsLeaf(value) && reflect.DeepEqual(current, value) {
			return nil
		}
		return store.Edit(path, value)
	})
}

func (e *Editor) ToggleEditMode(ctx context.Context, sid string) (*content.Store, error) {
	return e.update(ctx, sid, func(store *content.Store) error {
		store.ToggleEditMode()
		return nil
	})
}

// Changes lists the session's unsaved edits against the snapshot.
func (e *Editor) Changes(ctx context.Context, sid string) ([]content.Change, error) {
	store, err := e.Open(ctx, sid)
	if err != nil {
		return nil, err
	}
	return content.Diff(e.snapshot.Current(), store.Tree()), nil
}

func (e *Editor) Saving(ctx context.Context, sid string) (bool, error) {
	return e.registry.Saving(ctx, sid)
}

func (e *Editor) Discard(ctx context.Context, sid string) error {
	return e.registry.Delete(ctx, sid)
}

// Save persists the session's tree. Only one save per session runs at a time
// and the session accepts no edits meanwhile, so the tree read here is the
// one that ends up committed.
// On failure the session keeps its tree and dirty flag so the user can retry.
// On success the session is dropped and the saved tree becomes the snapshot.
func (e *Editor) Save(ctx context.Context, sid string) (SaveResult, error) {
	if e.gateway == nil {
		return SaveResult{}, ErrNotConfigured
	}

	acquired, err := e.registry.AcquireSave(ctx, sid)
	if err != nil {
		return SaveResult{}, err
	}
	if !acquired {
		return SaveResult{}, ErrSaveInProgress
	}
	defer func() {
		if err := e.registry.ReleaseSave(context.WithoutCancel(ctx), sid); err != nil {
			slog.Warn("failed to release save lock", "sid", sid, "error", err)
		}
	}()

	store, err := e.Open(ctx, sid)
	if err != nil {
		return SaveResult{}, err
	}
	if !store.Dirty() {
		return SaveResult{}, ErrNothingToSave
	}

	result, err := e.gateway.Save(ctx, store.Tree())
	if err != nil {
		return SaveResult{}, err
	}

	store.MarkSaved()
	e.snapshot.Set(store.Tree(), result.SHA)
	if err := e.registry.Delete(ctx, sid); err != nil {
		return result, fmt.Errorf("drop saved session: %w", err)
	}
	return result, nil
}

// Publish saves a tree submitted directly, outside any session.
func (e *Editor) Publish(ctx context.Context, tree content.Tree) (SaveResult, error) {
	if e.gateway == nil {
		return SaveResult{}, ErrNotConfigured
	}
	result, err := e.gateway.Save(ctx, tree)
	if err != nil {
		return SaveResult{}, err
	}
	e.snapshot.Set(tree, result.SHA)
	return result, nil
}

// Ping checks the session registry when it can be reached over the network.
func (e *Editor) Ping(ctx context.Context) error {
	if p, ok := e.registry.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
