package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solinntec-site/pkg/config"
	"solinntec-site/pkg/handlers"
	"solinntec-site/pkg/logger"
	"solinntec-site/pkg/services"
	"solinntec-site/pkg/session"
	"solinntec-site/pkg/site"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize config
	config.Init()
	logger.Init(logger.Options{
		Dev:         config.IsDevelopment(),
		Service:     "solinntec-site",
		Environment: config.AppEnv,
		SentryDSN:   config.SentryDSN,
	})
	defer sentry.Flush(2 * time.Second)

	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	bundled, err := site.Bundled()
	if err != nil {
		slog.Error("failed to load bundled content", "error", err)
		os.Exit(1)
	}
	snapshot := services.NewSnapshot(bundled, config.SnapshotTTL)

	ctx := context.Background()
	gateway, err := newGateway(ctx)
	if err != nil {
		// The site still renders; saves answer with a configuration error.
		slog.Warn("content saving disabled", "backend", config.ContentBackend, "error", err)
	} else if err := snapshot.Refresh(ctx, gateway); err != nil {
		slog.Warn("serving bundled content, repository not readable", "error", err)
	}

	registry, err := newRegistry()
	if err != nil {
		slog.Error("failed to set up session registry", "error", err)
		os.Exit(1)
	}
	if closer, ok := registry.(io.Closer); ok {
		defer closer.Close()
	}

	tmpl, err := site.Templates()
	if err != nil {
		slog.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	editor := services.NewEditor(registry, snapshot, gateway)
	r := handlers.SetupRouter(handlers.New(editor), handlers.RouterOptions{
		SessionSecret: config.SessionSecret,
		SessionTTL:    config.SessionTTL,
		Secure:        !config.IsDevelopment(),
		Templates:     tmpl,
	})

	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("starting server", "port", config.Port, "backend", config.ContentBackend, "file", config.ContentFilePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

func newGateway(ctx context.Context) (*services.Gateway, error) {
	var backend services.Backend
	switch config.ContentBackend {
	case "github":
		gh, err := services.NewGitHubBackend(ctx, config.GitHub())
		if err != nil {
			return nil, err
		}
		backend = gh
	case "git":
		repo := services.NewGitBackend(config.GitRepoPath, config.GitBranch, config.GitUserName, config.GitUserEmail)
		if err := repo.EnsureRepo(config.ContentFilePath, site.Source()); err != nil {
			return nil, err
		}
		backend = repo
	default:
		return nil, fmt.Errorf("unknown content backend %q", config.ContentBackend)
	}
	return services.NewGateway(backend, config.ContentFilePath, config.CommitMessage)
}

func newRegistry() (session.Registry, error) {
	if config.RedisURL == "" {
		return session.NewMemory(config.SessionTTL), nil
	}
	registry, err := session.NewRedis(config.RedisURL, config.SessionTTL)
	if err != nil {
		return nil, err
	}
	slog.Info("using redis session registry")
	return registry, nil
}
