package config

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

var (
	Port          = "8080"
	AppEnv        = "development"
	SessionSecret = ""
	SessionTTL    = 24 * time.Hour

	// Content settings
	ContentBackend  = "github"
	ContentFilePath = "data.ts"
	SnapshotTTL     = time.Minute

	// GitHub settings
	GitHubToken  = ""
	RepoOwner    = ""
	RepoName     = ""
	GitHubBranch = ""
	GitHubAPIURL = ""

	// Local git settings
	GitRepoPath  = "./repo"
	GitBranch    = "main"
	GitUserName  = "Solinntec Web Editor"
	GitUserEmail = "editor@solinntec.local"

	RedisURL  = ""
	SentryDSN = ""
)

// CommitMessage is used for every content commit.
const CommitMessage = "chore: update site content via web editor"

var ErrMissingGitHubConfig = errors.New("missing GitHub configuration")

// GitHubSettings names the repository that holds the content file.
type GitHubSettings struct {
	Token  string
	Owner  string
	Repo   string
	Branch string
	APIURL string
}

func (s GitHubSettings) Validate() error {
	if s.Token == "" || s.Owner == "" || s.Repo == "" {
		return ErrMissingGitHubConfig
	}
	return nil
}

func GitHub() GitHubSettings {
	return GitHubSettings{
		Token:  GitHubToken,
		Owner:  RepoOwner,
		Repo:   RepoName,
		Branch: GitHubBranch,
		APIURL: GitHubAPIURL,
	}
}

func Init() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	// Helper to get env with default
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	Port = getEnv("PORT", "8080")
	AppEnv = getEnv("APP_ENV", "development")
	SessionSecret = getEnv("SESSION_SECRET", "solinntec-dev-session-secret")

	SessionTTL = getDuration("SESSION_TTL", SessionTTL)
	SnapshotTTL = getDuration("SNAPSHOT_TTL", SnapshotTTL)

	ContentBackend = getEnv("CONTENT_BACKEND", "github")
	ContentFilePath = getEnv("CONTENT_FILE_PATH", "data.ts")

	GitHubToken = os.Getenv("GITHUB_TOKEN")
	RepoOwner = os.Getenv("REPO_OWNER")
	RepoName = os.Getenv("REPO_NAME")
	GitHubBranch = os.Getenv("GITHUB_BRANCH")
	GitHubAPIURL = os.Getenv("GITHUB_API_URL")

	GitRepoPath = getEnv("GIT_REPO_PATH", "./repo")
	GitBranch = getEnv("GIT_BRANCH", "main")
	GitUserName = getEnv("GIT_USER_NAME", "Solinntec Web Editor")
	GitUserEmail = getEnv("GIT_USER_EMAIL", "editor@solinntec.local")

	RedisURL = os.Getenv("REDIS_URL")
	SentryDSN = os.Getenv("SENTRY_DSN")
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	val, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return val
}

func IsDevelopment() bool {
	return AppEnv == "development"
}
