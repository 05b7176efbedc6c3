package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned by Read when a path does not resolve to a value.
	ErrNotFound = errors.New("path not found")
	// ErrPathInvalid is returned by Write when a path does not name an existing leaf.
	ErrPathInvalid = errors.New("path invalid")
)

// Read resolves a dotted path such as "hero.title" or "addons.2.name" against the tree.
func Read(tree Tree, path string) (any, error) {
	var current any = map[string]any(tree)
	for _, segment := range strings.Split(path, ".") {
		next, ok := step(current, segment)
		if !ok {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		current = next
	}
	return current, nil
}

// ReadOr is Read with a fallback for paths that do not resolve.
func ReadOr(tree Tree, path string, fallback any) any {
	value, err := Read(tree, path)
	if err != nil {
		return fallback
	}
	return value
}

// Write returns a copy of tree with the leaf at path replaced by value.
// The input tree is never modified. Write only replaces existing leaves:
// it never creates keys, grows lists or swaps a leaf for an object or list.
func Write(tree Tree, path string, value any) (Tree, error) {
	if tree == nil {
		return nil, fmt.Errorf("%q: %w", path, ErrPathInvalid)
	}
	if !IsLeaf(value) {
		return nil, fmt.Errorf("%q: value must be a string, number or boolean: %w", path, ErrPathInvalid)
	}

	out := tree.Clone()
	segments := strings.Split(path, ".")
	var parent any = map[string]any(out)
	for _, segment := range segments[:len(segments)-1] {
		next, ok := step(parent, segment)
		if !ok {
			return nil, fmt.Errorf("%q: %w", path, ErrPathInvalid)
		}
		parent = next
	}

	last := segments[len(segments)-1]
	existing, ok := step(parent, last)
	if !ok || (existing != nil && !IsLeaf(existing)) {
		return nil, fmt.Errorf("%q: %w", path, ErrPathInvalid)
	}

	switch container := parent.(type) {
	case map[string]any:
		container[last] = value
	case []any:
		idx, _ := index(last)
		container[idx] = value
	default:
		return nil, fmt.Errorf("%q: %w", path, ErrPathInvalid)
	}
	return out, nil
}

func step(node any, segment string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[segment]
		return v, ok
	case Tree:
		v, ok := n[segment]
		return v, ok
	case []any:
		idx, ok := index(segment)
		if !ok || idx >= len(n) {
			return nil, false
		}
		return n[idx], true
	default:
		return nil, false
	}
}

// index parses a list segment; only plain decimal digits are accepted.
func index(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return idx, true
}
