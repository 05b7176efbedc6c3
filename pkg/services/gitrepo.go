package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitBackend keeps the content file in a repository on local disk. The version
// marker is the blob hash of the file on the branch head, as with GitHub.
type GitBackend struct {
	dir         string
	branch      string
	authorName  string
	authorEmail string
	mu          sync.Mutex
}

func NewGitBackend(dir, branch, authorName, authorEmail string) *GitBackend {
	return &GitBackend{
		dir:         dir,
		branch:      branch,
		authorName:  authorName,
		authorEmail: authorEmail,
	}
}

// EnsureRepo initializes the repository with path seeded from initial if it does not exist yet.
func (b *GitBackend) EnsureRepo(path string, initial []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(filepath.Join(b.dir, ".git")); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat repo path: %w", err)
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}
	repo, err := git.PlainInit(b.dir, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}

	hash, err := b.commit(repo, path, initial, "Import site content baseline")
	if err != nil {
		return err
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(b.branch), hash)); err != nil {
		return fmt.Errorf("set %s branch ref: %w", b.branch, err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(b.branch))); err != nil {
		return fmt.Errorf("set HEAD to %s: %w", b.branch, err)
	}
	return nil
}

func (b *GitBackend) Fetch(_ context.Context, path string) (RemoteFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	repo, err := git.PlainOpen(b.dir)
	if err != nil {
		return RemoteFile{}, fmt.Errorf("open repo: %w", err)
	}
	file, err := b.headFile(repo, path)
	if err != nil {
		return RemoteFile{}, err
	}
	text, err := file.Contents()
	if err != nil {
		return RemoteFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return RemoteFile{
		Path:    path,
		Content: []byte(text),
		SHA:     file.Hash.String(),
	}, nil
}

func (b *GitBackend) Update(_ context.Context, path string, content []byte, sha, message string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	repo, err := git.PlainOpen(b.dir)
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	current, err := b.headFile(repo, path)
	if err != nil {
		return "", err
	}
	if current.Hash.String() != sha {
		return "", &ConflictError{Path: path, Expected: sha, Current: current.Hash.String()}
	}

	if err := checkoutBranch(repo, b.branch); err != nil {
		return "", err
	}
	if _, err := b.commit(repo, path, content, message); err != nil {
		return "", err
	}
	return plumbing.ComputeHash(plumbing.BlobObject, content).String(), nil
}

func (b *GitBackend) headFile(repo *git.Repository, path string) (*object.File, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(b.branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", b.branch, err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("load commit object: %w", err)
	}
	file, err := commitObj.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("load %s from commit: %w", path, err)
	}
	return file, nil
}

func (b *GitBackend) commit(repo *git.Repository, path string, content []byte, message string) (plumbing.Hash, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("open worktree: %w", err)
	}

	fullPath := filepath.Join(worktree.Filesystem.Root(), filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create content dir: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := worktree.Add(path); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("git add %s: %w", path, err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  b.authorName,
			Email: b.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("commit content: %w", err)
	}
	return hash, nil
}

func checkoutBranch(repo *git.Repository, branchName string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	head, err := repo.Head()
	if err == nil && head.Name() == plumbing.NewBranchReferenceName(branchName) {
		return nil
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branchName), Force: true}); err != nil {
		return fmt.Errorf("checkout branch %s: %w", branchName, err)
	}
	return nil
}
