// Command uploadkit-server serves multipart and remote-image uploads over
// HTTP. It is configured entirely from BEAVER_UPLOADKIT_* variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gobeaver/uploadkit"
	"github.com/gobeaver/uploadkit/internal/api"
	"github.com/gobeaver/uploadkit/policy"
)

// Version info (set during build)
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "uploadkit-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := uploadkit.GetConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policies, closePolicies, err := loadPolicies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePolicies()

	if cfg.DefaultPolicy != "" {
		if _, ok := policies.Lookup(cfg.DefaultPolicy); !ok {
			return fmt.Errorf("default policy %q is not defined", cfg.DefaultPolicy)
		}
	}

	e := api.NewServer(&api.Dependencies{
		Ingest:         cfg.IngestOptions(logger),
		Fetcher:        uploadkit.NewFetcher(cfg.FetcherOptions(logger)),
		Policies:       policies,
		DefaultPolicy:  cfg.DefaultPolicy,
		MaxBodySize:    cfg.MaxBodySize,
		RemoteMaxBytes: cfg.RemoteMaxBytes,
		Version:        Version,
		Logger:         logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "version", Version)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newLogger(cfg *uploadkit.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

// loadPolicies watches cfg.PolicyFile when set, otherwise serves the
// built-in presets.
func loadPolicies(ctx context.Context, cfg *uploadkit.Config, logger *slog.Logger) (policy.Source, func(), error) {
	if cfg.PolicyFile == "" {
		logger.Info("using built-in policies")
		return policy.Builtin(), func() {}, nil
	}

	w, err := policy.Watch(ctx, cfg.PolicyFile, policy.WatchOptions{Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("load policies: %w", err)
	}
	logger.Info("policies loaded", "file", cfg.PolicyFile, "policies", w.Catalog().Names())

	var onChange func()
	onChange = func() {
		if cfg.DefaultPolicy != "" {
			if _, ok := w.Lookup(cfg.DefaultPolicy); !ok {
				logger.Warn("default policy missing after reload", "policy", cfg.DefaultPolicy)
			}
		}
		w.Changes().RegisterChangeCallback(onChange)
	}
	w.Changes().RegisterChangeCallback(onChange)

	return w, func() { _ = w.Close() }, nil
}
