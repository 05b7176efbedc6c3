package models

import "solinntec-site/pkg/content"

// SaveRequest is the body of POST /api/save.
type SaveRequest struct {
	Content content.Tree `json:"content"`
}

// EditRequest replaces one leaf of the session tree.
type EditRequest struct {
	Path  string `json:"path" binding:"required"`
	Value any    `json:"value"`
}

// SessionState is what the browser sees of its editing session.
type SessionState struct {
	Content content.Tree `json:"content"`
	Dirty   bool         `json:"dirty"`
	Editing bool         `json:"editing"`
	Saving  bool         `json:"saving"`
	Version string       `json:"version,omitempty"`
}

// ValueResponse is returned by GET /api/content/value.
type ValueResponse struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}
