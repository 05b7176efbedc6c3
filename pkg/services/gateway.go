package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"solinntec-site/pkg/codec"
	"solinntec-site/pkg/content"
)

// Gateway persists the content tree into a single file of the repository,
// reading the version marker first and writing conditionally on it.
type Gateway struct {
	backend Backend
	path    string
	format  codec.Format
	message string
}

type SaveResult struct {
	Path        string `json:"path"`
	PreviousSHA string `json:"previous_sha"`
	SHA         string `json:"sha"`
}

func NewGateway(backend Backend, path, message string) (*Gateway, error) {
	format, err := codec.FormatFor(path)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		backend: backend,
		path:    path,
		format:  format,
		message: message,
	}, nil
}

// Load fetches and decodes the current remote content.
func (g *Gateway) Load(ctx context.Context) (content.Tree, string, error) {
	file, err := g.backend.Fetch(ctx, g.path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	tree, err := codec.Decode(g.format, file.Content)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return tree, file.SHA, nil
}

// Save overwrites the remote file with tree. It never retries: a stale
// version marker yields ErrConflict, any other write failure ErrWrite.
func (g *Gateway) Save(ctx context.Context, tree content.Tree) (SaveResult, error) {
	current, err := g.backend.Fetch(ctx, g.path)
	if err != nil {
		slog.Error("error fetching content file", "path", g.path, "error", err)
		return SaveResult{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	body, err := codec.Encode(g.format, tree)
	if err != nil {
		return SaveResult{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	sha, err := g.backend.Update(ctx, g.path, body, current.SHA, g.message)
	if err != nil {
		slog.Error("error updating content file", "path", g.path, "sha", current.SHA, "error", err)
		if errors.Is(err, ErrConflict) {
			return SaveResult{}, err
		}
		return SaveResult{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	slog.Info("content file updated", "path", g.path, "previous_sha", current.SHA, "sha", sha)
	return SaveResult{Path: g.path, PreviousSHA: current.SHA, SHA: sha}, nil
}
