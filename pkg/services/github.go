package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"solinntec-site/pkg/config"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// GitHubBackend talks to the repository contents API.
type GitHubBackend struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

func NewGitHubBackend(ctx context.Context, settings config.GitHubSettings) (*GitHubBackend, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: settings.Token}))
	client := github.NewClient(httpClient)
	if settings.APIURL != "" {
		base, err := url.Parse(strings.TrimSuffix(settings.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse GITHUB_API_URL: %w", err)
		}
		client.BaseURL = base
	}

	return &GitHubBackend{
		client: client,
		owner:  settings.Owner,
		repo:   settings.Repo,
		branch: settings.Branch,
	}, nil
}

func (b *GitHubBackend) Fetch(ctx context.Context, path string) (RemoteFile, error) {
	opts := &github.RepositoryContentGetOptions{Ref: b.branch}
	file, _, resp, err := b.client.Repositories.GetContents(ctx, b.owner, b.repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return RemoteFile{}, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return RemoteFile{}, fmt.Errorf("get contents %s: %w", path, err)
	}
	if file == nil {
		return RemoteFile{}, fmt.Errorf("%s is a directory: %w", path, ErrFileNotFound)
	}

	text, err := file.GetContent()
	if err != nil {
		return RemoteFile{}, fmt.Errorf("decode contents %s: %w", path, err)
	}
	return RemoteFile{
		Path:    path,
		Content: []byte(text),
		SHA:     file.GetSHA(),
	}, nil
}

// Update commits content; the client base64-encodes it for transport.
func (b *GitHubBackend) Update(ctx context.Context, path string, content []byte, sha, message string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		SHA:     github.String(sha),
	}
	if b.branch != "" {
		opts.Branch = github.String(b.branch)
	}

	result, resp, err := b.client.Repositories.UpdateFile(ctx, b.owner, b.repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return "", &ConflictError{Path: path, Expected: sha}
		}
		return "", fmt.Errorf("update contents %s: %w", path, err)
	}
	if result == nil || result.Content == nil {
		return "", nil
	}
	return result.Content.GetSHA(), nil
}
