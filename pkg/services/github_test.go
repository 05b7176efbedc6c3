package services

import (
	"context"
	"errors"
	"testing"

	"solinntec-site/pkg/config"
)

func TestGitHubBackendFetchAndUpdate(t *testing.T) {
	initial := encodeTS(t, siteTree())
	fake, srv := newFakeGitHub(t, map[string][]byte{"data.ts": initial})
	backend := newTestGitHubBackend(t, srv)
	ctx := context.Background()

	file, err := backend.Fetch(ctx, "data.ts")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(file.Content) != string(initial) {
		t.Fatalf("Fetch() content mismatch")
	}
	if file.SHA != blobSHA(initial) {
		t.Fatalf("Fetch() sha = %s, want %s", file.SHA, blobSHA(initial))
	}
	if fake.lastAuth != "Bearer test-token" {
		t.Fatalf("Authorization header = %q", fake.lastAuth)
	}

	updated := []byte("export const siteData = {};\n")
	sha, err := backend.Update(ctx, "data.ts", updated, file.SHA, config.CommitMessage)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if sha != blobSHA(updated) {
		t.Fatalf("Update() sha = %s, want %s", sha, blobSHA(updated))
	}
	if string(fake.file("data.ts")) != string(updated) {
		t.Fatal("remote file was not updated")
	}
	if len(fake.commits) != 1 || fake.commits[0] != config.CommitMessage {
		t.Fatalf("commits = %v", fake.commits)
	}
}

func TestGitHubBackendStaleSHAConflicts(t *testing.T) {
	_, srv := newFakeGitHub(t, map[string][]byte{"data.ts": encodeTS(t, siteTree())})
	backend := newTestGitHubBackend(t, srv)
	ctx := context.Background()

	v0, err := backend.Fetch(ctx, "data.ts")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := backend.Update(ctx, "data.ts", []byte("first"), v0.SHA, config.CommitMessage); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}

	_, err = backend.Update(ctx, "data.ts", []byte("second"), v0.SHA, config.CommitMessage)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second Update() error = %v, want ErrConflict", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Expected != v0.SHA {
		t.Fatalf("expected ConflictError naming %s, got %v", v0.SHA, err)
	}
}

func TestGitHubBackendMissingFile(t *testing.T) {
	_, srv := newFakeGitHub(t, map[string][]byte{})
	backend := newTestGitHubBackend(t, srv)

	_, err := backend.Fetch(context.Background(), "data.ts")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("Fetch() error = %v, want ErrFileNotFound", err)
	}
}

func TestNewGitHubBackendRequiresSettings(t *testing.T) {
	settings := testSettings("")
	settings.Token = ""
	if _, err := NewGitHubBackend(context.Background(), settings); !errors.Is(err, config.ErrMissingGitHubConfig) {
		t.Fatalf("NewGitHubBackend() error = %v, want ErrMissingGitHubConfig", err)
	}
}
