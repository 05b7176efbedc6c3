package services

import (
	"context"
	"errors"
	"testing"

	"solinntec-site/pkg/codec"
	"solinntec-site/pkg/config"
	"solinntec-site/pkg/content"
)

func TestGatewaySaveWritesCanonicalFile(t *testing.T) {
	fake, srv := newFakeGitHub(t, map[string][]byte{"data.ts": encodeTS(t, siteTree())})
	gateway, err := NewGateway(newTestGitHubBackend(t, srv), "data.ts", config.CommitMessage)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	tree, err := content.Write(siteTree(), "hero.title", "Nuevo titulo")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	result, err := gateway.Save(context.Background(), tree)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if result.PreviousSHA == "" || result.SHA == "" || result.PreviousSHA == result.SHA {
		t.Fatalf("unexpected result %+v", result)
	}

	saved, err := codec.Decode(codec.FormatTS, fake.file("data.ts"))
	if err != nil {
		t.Fatalf("remote file is not valid: %v", err)
	}
	if !content.Equal(saved, tree) {
		t.Fatalf("remote content = %#v, want %#v", saved, tree)
	}
	if fake.commits[0] != "chore: update site content via web editor" {
		t.Fatalf("commit message = %q", fake.commits[0])
	}
}

func TestGatewayLoad(t *testing.T) {
	_, srv := newFakeGitHub(t, map[string][]byte{"data.ts": encodeTS(t, siteTree())})
	gateway, err := NewGateway(newTestGitHubBackend(t, srv), "data.ts", config.CommitMessage)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	tree, sha, err := gateway.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sha == "" || !content.Equal(tree, siteTree()) {
		t.Fatalf("Load() = %#v, %q", tree, sha)
	}
}

func TestGatewayFetchFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, srv := newFakeGitHub(t, map[string][]byte{})
		gateway, _ := NewGateway(newTestGitHubBackend(t, srv), "data.ts", config.CommitMessage)

		_, err := gateway.Save(context.Background(), siteTree())
		if !errors.Is(err, ErrFetch) || !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("Save() error = %v, want ErrFetch wrapping ErrFileNotFound", err)
		}
	})

	t.Run("remote error", func(t *testing.T) {
		fake, srv := newFakeGitHub(t, map[string][]byte{"data.ts": encodeTS(t, siteTree())})
		fake.failGet = true
		gateway, _ := NewGateway(newTestGitHubBackend(t, srv), "data.ts", config.CommitMessage)

		_, err := gateway.Save(context.Background(), siteTree())
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("Save() error = %v, want ErrFetch", err)
		}
	})
}

func TestGatewayWriteFailureLeavesRemoteUntouched(t *testing.T) {
	initial := encodeTS(t, siteTree())
	fake, srv := newFakeGitHub(t, map[string][]byte{"data.ts": initial})
	fake.failPut = true
	gateway, _ := NewGateway(newTestGitHubBackend(t, srv), "data.ts", config.CommitMessage)

	_, err := gateway.Save(context.Background(), content.Tree{"hero": map[string]any{"title": "x"}})
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("Save() error = %v, want ErrWrite", err)
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("transport failure reported as conflict: %v", err)
	}
	if string(fake.file("data.ts")) != string(initial) {
		t.Fatal("remote file changed after a failed write")
	}
}

// Two sessions read V0; A writes first, so B's write against V0 must conflict.
func TestGatewayConcurrentSaveConflicts(t *testing.T) {
	backend := newTestGitBackend(t, encodeTS(t, siteTree()))
	sessionA, err := NewGateway(backend, "data.ts", config.CommitMessage)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	treeA, _ := content.Write(siteTree(), "hero.title", "Session A")
	treeB, _ := content.Write(siteTree(), "hero.title", "Session B")

	var resultA SaveResult
	scripted := &scriptedBackend{Backend: backend}
	scripted.beforeWrite = func() {
		// B has fetched V0; A completes its whole save before B writes.
		scripted.beforeWrite = nil
		var err error
		resultA, err = sessionA.Save(context.Background(), treeA)
		if err != nil {
			t.Errorf("session A Save() error = %v", err)
		}
	}
	sessionB, _ := NewGateway(scripted, "data.ts", config.CommitMessage)

	_, err = sessionB.Save(context.Background(), treeB)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("session B Save() error = %v, want ErrConflict", err)
	}

	remote, sha, err := sessionA.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sha != resultA.SHA {
		t.Fatalf("remote sha = %s, want A's %s", sha, resultA.SHA)
	}
	if got := content.ReadOr(remote, "hero.title", ""); got != "Session A" {
		t.Fatalf("remote title = %v, want Session A", got)
	}
}

func TestNewGatewayRejectsUnknownFormat(t *testing.T) {
	if _, err := NewGateway(&scriptedBackend{}, "content.md", config.CommitMessage); !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Fatalf("NewGateway() error = %v, want ErrUnsupportedFormat", err)
	}
}
