package content

import "fmt"

// State is the serializable form of a Store, kept by the session registry.
type State struct {
	Content Tree `json:"content"`
	Dirty   bool `json:"dirty"`
	Editing bool `json:"editing"`
}

// Store is the editing state of one browser session.
type Store struct {
	tree    Tree
	dirty   bool
	editing bool
}

// NewStore starts a clean session from a snapshot.
func NewStore(snapshot Tree) *Store {
	return &Store{tree: snapshot.Clone()}
}

// Restore rebuilds a Store from a persisted State.
func Restore(st State) *Store {
	return &Store{
		tree:    st.Content,
		dirty:   st.Dirty,
		editing: st.Editing,
	}
}

// State returns the persisted form of the store.
func (s *Store) State() State {
	return State{
		Content: s.tree,
		Dirty:   s.dirty,
		Editing: s.editing,
	}
}

// Tree returns the current tree. Trees are replaced, never mutated, so the
// returned value stays valid after later edits.
func (s *Store) Tree() Tree {
	return s.tree
}

// Value reads path from the current tree, falling back when it does not resolve.
func (s *Store) Value(path string, fallback any) any {
	return ReadOr(s.tree, path, fallback)
}

// Edit replaces the leaf at path. On failure the store is left untouched.
func (s *Store) Edit(path string, value any) error {
	next, err := Write(s.tree, path, value)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	s.tree = next
	s.dirty = true
	return nil
}

func (s *Store) Dirty() bool {
	return s.dirty
}

func (s *Store) Editing() bool {
	return s.editing
}

// ToggleEditMode flips edit mode and returns the new value.
func (s *Store) ToggleEditMode() bool {
	s.editing = !s.editing
	return s.editing
}

// MarkSaved clears the dirty flag after a successful save.
func (s *Store) MarkSaved() {
	s.dirty = false
}
