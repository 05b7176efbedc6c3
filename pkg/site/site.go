// Package site holds the bundled content snapshot and the page templates.
package site

import (
	"embed"
	"fmt"
	"html/template"

	"solinntec-site/pkg/codec"
	"solinntec-site/pkg/content"
)

//go:embed data.ts
var bundled []byte

//go:embed templates/*.html
var templates embed.FS

// Source returns the raw bundled content file, used to seed a fresh repository.
func Source() []byte {
	return bundled
}

// Bundled decodes the content snapshot shipped with the binary.
func Bundled() (content.Tree, error) {
	tree, err := codec.Decode(codec.FormatTS, bundled)
	if err != nil {
		return nil, fmt.Errorf("decode bundled content: %w", err)
	}
	return tree, nil
}

func Templates() (*template.Template, error) {
	return template.ParseFS(templates, "templates/*.html")
}

// Page is the view model of the rendered site. Every editable leaf is read
// through Text so that a missing path degrades to the fallback.
type Page struct {
	Editing bool
	Dirty   bool
	tree    content.Tree
}

func NewPage(tree content.Tree, editing, dirty bool) Page {
	return Page{Editing: editing, Dirty: dirty, tree: tree}
}

func (p Page) Text(path, fallback string) string {
	value := content.ReadOr(p.tree, path, fallback)
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok {
		return s
	}
	if !content.IsLeaf(value) {
		return fallback
	}
	return fmt.Sprint(value)
}

// Items returns the indexes of the list at path, for ranging in templates.
func (p Page) Items(path string) []int {
	list, ok := content.ReadOr(p.tree, path, nil).([]any)
	if !ok {
		return nil
	}
	idx := make([]int, len(list))
	for i := range list {
		idx[i] = i
	}
	return idx
}

// At joins a list path and an index into an element path.
func (p Page) At(path string, i int, key string) string {
	return fmt.Sprintf("%s.%d.%s", path, i, key)
}
