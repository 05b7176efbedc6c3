package services

import (
	"context"
	"errors"
	"fmt"

	"solinntec-site/pkg/session"
)

var (
	ErrFileNotFound   = errors.New("content file not found")
	ErrFetch          = errors.New("failed to fetch file from repository")
	ErrConflict       = errors.New("version conflict")
	ErrWrite          = errors.New("failed to update file in repository")
	ErrSaveInProgress = session.ErrSaveInProgress
	ErrNothingToSave  = errors.New("no unsaved changes")
	ErrNotConfigured  = errors.New("content backend not configured")
)

// ConflictError reports a conditional write whose version marker is stale.
type ConflictError struct {
	Path     string
	Expected string
	Current  string
}

func (e *ConflictError) Error() string {
	if e.Current == "" {
		return fmt.Sprintf("%s: version conflict: expected %s", e.Path, e.Expected)
	}
	return fmt.Sprintf("%s: version conflict: expected %s, found %s", e.Path, e.Expected, e.Current)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// RemoteFile is a content file and the version marker of the revision it was read at.
type RemoteFile struct {
	Path    string
	Content []byte
	SHA     string
}

// Backend reads and conditionally writes files in a source-control repository.
type Backend interface {
	Fetch(ctx context.Context, path string) (RemoteFile, error)
	// Update replaces path only if its current version marker is sha and
	// returns the marker of the new revision.
	Update(ctx context.Context, path string, content []byte, sha, message string) (string, error)
}
