package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ppiankov/sponsorgrader/internal/cache"
	"github.com/ppiankov/sponsorgrader/internal/llm"
	"github.com/ppiankov/sponsorgrader/internal/model"
	"github.com/ppiankov/sponsorgrader/internal/sheets"
	"github.com/ppiankov/sponsorgrader/internal/store"
	"github.com/ppiankov/sponsorgrader/internal/website"
	"github.com/ppiankov/sponsorgrader/internal/worker"
)

// openGateway connects to the sheet for variant, routing the OAuth token
// exchange and the Sheets API through the configured proxy
func openGateway(ctx context.Context, cfg model.Config, variant model.SheetVariant, client *http.Client) (*sheets.Google, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	return sheets.Open(ctx, cfg, variant,
		sheets.WithLogger(logger.With(zap.String("sheet", variant.String()))),
		sheets.WithWriteLimiter(worker.NewLimiter(cfg.Sheets.WritesPerMinute, 1)),
	)
}

// newResearcher builds the provider and wraps it with timeout, pacing and retries
func newResearcher(ctx context.Context, cfg model.Config, client *http.Client, echo io.Writer) (*llm.Researcher, error) {
	provider, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM, client, logger))
	if err != nil {
		return nil, fmt.Errorf("create research provider: %w", err)
	}

	opts := []llm.ResearcherOption{
		llm.WithTimeout(cfg.Research.Timeout),
		llm.WithLimiter(worker.NewLimiter(cfg.Research.RequestsPerMinute, 1)),
		llm.WithRetryHandler(llm.NewRetryHandler(llm.RetryConfig{MaxRetries: cfg.Research.MaxRetries})),
		llm.WithLogger(logger),
	}
	if cfg.Research.StreamOutput && echo != nil {
		opts = append(opts, llm.WithEcho(echo))
	}
	return llm.NewResearcher(provider, opts...), nil
}

// newSnapshotter returns nil when website checks are disabled
func newSnapshotter(cfg model.Config, client *http.Client) *website.Snapshotter {
	if !cfg.Website.Enabled {
		return nil
	}

	opts := website.Options{
		HTTPClient:    client,
		UserAgent:     cfg.Website.UserAgent,
		MaxBytes:      cfg.Website.MaxBytes,
		Timeout:       cfg.Website.Timeout,
		RespectRobots: cfg.Website.RespectRobots,
		ExcerptChars:  cfg.Website.ExcerptChars,
		Logger:        logger,
	}
	if cfg.Cache.Enabled {
		opts.Cache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		opts.CacheTTL = cfg.Cache.TTL
	}
	return website.NewSnapshotter(opts)
}

// openLedger returns nil (with a warning) when the ledger is disabled or
// cannot be opened
func openLedger(cfg model.Config) *store.Ledger {
	if !cfg.Ledger.Enabled || cfg.Ledger.Path == "" {
		return nil
	}
	l, err := store.Open(cfg.Ledger.Path)
	if err != nil {
		logger.Warn("grade ledger unavailable", zap.String("path", cfg.Ledger.Path), zap.Error(err))
		return nil
	}
	return l
}

// explainConfigError prints missing settings with a hint before returning err
func explainConfigError(err error) error {
	var cfgErr *model.ConfigError
	if errors.As(err, &cfgErr) {
		if cfgErr.UnknownProvider != "" {
			fmt.Fprintf(os.Stderr, "✗ Unknown LLM provider %q (supported: %s)\n\n",
				cfgErr.UnknownProvider, strings.Join(llm.Providers, ", "))
		}
		if len(cfgErr.Missing) == 0 {
			return err
		}
		fmt.Fprintf(os.Stderr, "✗ Configuration incomplete:\n")
		for _, name := range cfgErr.Missing {
			fmt.Fprintf(os.Stderr, "    %s\n", name)
		}
		fmt.Fprintf(os.Stderr, "\n  Set them in the environment, a .env file, or ~/.sponsorgrader/config.yaml\n\n")
	}
	return err
}
