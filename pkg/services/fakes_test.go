package services

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"solinntec-site/pkg/codec"
	"solinntec-site/pkg/config"
	"solinntec-site/pkg/content"
)

func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// fakeGitHub serves the subset of the repository contents API the backend uses.
type fakeGitHub struct {
	mu       sync.Mutex
	files    map[string][]byte
	commits  []string
	failGet  bool
	failPut  bool
	lastAuth string
}

func newFakeGitHub(t *testing.T, files map[string][]byte) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	fake := &fakeGitHub{files: files}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, srv
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastAuth = r.Header.Get("Authorization")
	const prefix = "/repos/solinntec/site/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		if f.failGet {
			writeFakeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
			return
		}
		data, ok := f.files[path]
		if !ok {
			writeFakeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeFakeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"name":     path,
			"path":     path,
			"sha":      blobSHA(data),
			"content":  base64.StdEncoding.EncodeToString(data),
		})
	case http.MethodPut:
		if f.failPut {
			writeFakeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
			return
		}
		var req struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		current, ok := f.files[path]
		if ok && blobSHA(current) != req.SHA {
			writeFakeJSON(w, http.StatusConflict, map[string]any{
				"message": fmt.Sprintf("%s does not match %s", path, req.SHA),
			})
			return
		}
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			writeFakeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		f.files[path] = data
		f.commits = append(f.commits, req.Message)
		writeFakeJSON(w, http.StatusOK, map[string]any{
			"content": map[string]any{"path": path, "sha": blobSHA(data)},
			"commit":  map[string]any{"sha": fmt.Sprintf("commit-%d", len(f.commits)), "message": req.Message},
		})
	default:
		writeFakeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method Not Allowed"})
	}
}

func (f *fakeGitHub) file(path string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[path]
}

func writeFakeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func testSettings(apiURL string) config.GitHubSettings {
	return config.GitHubSettings{
		Token:  "test-token",
		Owner:  "solinntec",
		Repo:   "site",
		APIURL: apiURL,
	}
}

func siteTree() content.Tree {
	return content.Tree{
		"hero": map[string]any{
			"title":    "Expertos en Soluciones Tecnológicas",
			"subtitle": "Arquitectura empresarial de alto rendimiento.",
		},
		"addons": []any{
			map[string]any{"name": "Fast Invoice", "category": "Finanzas"},
			map[string]any{"name": "Smart Bank", "category": "Banca"},
		},
	}
}

func encodeTS(t *testing.T, tree content.Tree) []byte {
	t.Helper()
	data, err := codec.Encode(codec.FormatTS, tree)
	if err != nil {
		t.Fatalf("encode tree: %v", err)
	}
	return data
}

func newTestGitHubBackend(t *testing.T, srv *httptest.Server) *GitHubBackend {
	t.Helper()
	backend, err := NewGitHubBackend(context.Background(), testSettings(srv.URL))
	if err != nil {
		t.Fatalf("NewGitHubBackend() error = %v", err)
	}
	return backend
}

// scriptedBackend lets tests inject failures and interleavings.
type scriptedBackend struct {
	Backend
	fetchErr    error
	updateErr   error
	beforeWrite func()
	updates     int
}

func (s *scriptedBackend) Fetch(ctx context.Context, path string) (RemoteFile, error) {
	if s.fetchErr != nil {
		return RemoteFile{}, s.fetchErr
	}
	return s.Backend.Fetch(ctx, path)
}

func (s *scriptedBackend) Update(ctx context.Context, path string, content []byte, sha, message string) (string, error) {
	s.updates++
	if s.beforeWrite != nil {
		s.beforeWrite()
	}
	if s.updateErr != nil {
		return "", s.updateErr
	}
	return s.Backend.Update(ctx, path, content, sha, message)
}
