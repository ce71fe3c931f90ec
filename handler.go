package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/kova98/postharvester/config"
	"github.com/kova98/postharvester/data"
	"github.com/kova98/postharvester/harvest"
	"github.com/kova98/postharvester/sources"
)

// App holds what survives between warm invocations: the logger and the
// database pool.
type App struct {
	logger  *slog.Logger
	newPool func(dsn string) *data.Pool
	migrate func(db *sql.DB) error

	mu       sync.Mutex
	pool     *data.Pool
	migrated bool
}

func NewApp(logger *slog.Logger) *App {
	return &App{
		logger:  logger,
		newPool: data.NewPool,
		migrate: data.RunMigrations,
	}
}

// Handle runs one harvest over every configured subreddit. The event payload
// is ignored.
func (a *App) Handle(ctx context.Context, event json.RawMessage) error {
	cfg, err := config.Load()
	if err != nil {
		a.logger.Error("invalid configuration", "error", err)
		return err
	}

	pool, err := a.database(ctx, cfg)
	if err != nil {
		return err
	}

	httpClient, err := sources.NewHTTPClient(cfg.RedditProxyURL)
	if err != nil {
		a.logger.Error("failed to create http client", "error", err)
		return errors.Wrap(err, "http client")
	}

	reddit, err := sources.NewRedditClient(ctx, a.logger, httpClient, sources.RedditConfig{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		UserAgent:    cfg.RedditUserAgent,
		TimeFilter:   cfg.TimeFilter,
		AuthURL:      cfg.RedditAuthURL,
		BaseURL:      cfg.RedditBaseURL,
	})
	if err != nil {
		a.logger.Error("failed to authenticate with reddit", "error", err)
		return err
	}

	metrics := harvest.NewMetrics()
	harvester := harvest.NewHarvester(a.logger, pool, reddit, metrics, cfg.PostLimit, cfg.CommentLimit)
	_, runErr := harvester.Run(ctx, cfg.Subreddits)

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(ctx, cfg.PushgatewayURL); err != nil {
			a.logger.Warn("failed to push metrics", "error", err)
		}
	}

	if runErr != nil {
		a.logger.Error("error during harvest", "error", runErr)
		return runErr
	}
	return nil
}

// database returns the process-wide pool, opening it on the first call and
// running migrations once when enabled.
func (a *App) database(ctx context.Context, cfg config.AppConfig) (*data.Pool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pool == nil {
		a.pool = a.newPool(cfg.PostgresDSN())
	}

	db, err := a.pool.DB(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations && !a.migrated {
		if err := a.migrate(db.DB); err != nil {
			a.logger.Error("failed to run migrations", "error", err)
			return nil, err
		}
		a.migrated = true
	}

	return a.pool, nil
}

func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pool == nil {
		return nil
	}
	return a.pool.Close()
}
