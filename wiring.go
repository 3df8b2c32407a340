package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	billingapp "medibill-ai/internal/billing/application"
	billing "medibill-ai/internal/billing/domain"
	"medibill-ai/internal/billing/infrastructure/memory"
	billingpg "medibill-ai/internal/billing/infrastructure/postgres"
	"medibill-ai/internal/config"
	"medibill-ai/internal/db"
	explainapp "medibill-ai/internal/explain/application"
	"medibill-ai/internal/explain/infrastructure/fake"
	"medibill-ai/internal/explain/infrastructure/gemini"
	"medibill-ai/internal/interactionlog"
)

// openDB connects when the config needs Postgres. It returns nil otherwise.
func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.Store != config.StorePostgres && !cfg.InteractionLog.Postgres {
		return nil, nil
	}
	return db.Open(ctx, cfg.DatabaseURL)
}

func buildRepository(cfg config.Config, conn *sql.DB) (billing.Repository, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewRepository(), nil
	case config.StorePostgres:
		if conn == nil {
			return nil, errors.New("postgres store: no database connection")
		}
		return billingpg.NewRepository(conn), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func buildGenerator(ctx context.Context, cfg config.Config) (explainapp.Generator, error) {
	switch cfg.Gemini.Generator {
	case config.GeneratorFake:
		return fake.New(), nil
	case config.GeneratorGemini:
		return gemini.NewClient(ctx, cfg.Gemini.APIKey,
			gemini.WithBaseURL(cfg.Gemini.BaseURL),
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithTimeout(cfg.Gemini.Timeout),
		)
	default:
		return nil, fmt.Errorf("unknown generator %q", cfg.Gemini.Generator)
	}
}

// buildInteractionLogger assembles the configured sinks. The zerolog sink is
// used when nothing else is configured.
func buildInteractionLogger(ctx context.Context, cfg config.Config, conn *sql.DB, log zerolog.Logger) (*interactionlog.AsyncLogger, error) {
	var sinks []interactionlog.Sink
	ic := cfg.InteractionLog
	if ic.WebhookURL != "" {
		sink, err := interactionlog.NewWebhookSink(ic.WebhookURL, ic.WebhookAPIKey)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if ic.Postgres {
		sink, err := interactionlog.NewPostgresSink(conn)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if ic.S3Bucket != "" {
		client, err := interactionlog.NewS3Client(ctx, ic.S3Region)
		if err != nil {
			return nil, err
		}
		sink, err := interactionlog.NewS3Sink(client, ic.S3Bucket, ic.S3Prefix)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, interactionlog.NewLogSink(log))
	}
	return interactionlog.NewAsyncLogger(sinks, log, interactionlog.WithBufferSize(ic.BufferSize))
}

func newBillingService(repo billing.Repository, cfg config.Config, opts ...billingapp.Option) (*billingapp.Service, error) {
	opts = append([]billingapp.Option{billingapp.WithDefaultCurrency(cfg.Currency)}, opts...)
	return billingapp.NewService(repo, opts...)
}

func loggingMiddleware(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("duration", time.Since(start)).
			Msg("http")
	})
}
