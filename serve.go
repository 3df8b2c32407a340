package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	billingapp "medibill-ai/internal/billing/application"
	billinghttp "medibill-ai/internal/billing/interfaces/http"
	"medibill-ai/internal/coverage"
	"medibill-ai/internal/db"
	explainapp "medibill-ai/internal/explain/application"
	"medibill-ai/internal/exitcode"
	"medibill-ai/internal/logging"
	"medibill-ai/internal/observability/metrics"
	"medibill-ai/internal/session"
	"medibill-ai/internal/web"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bill page, JSON API and live feed",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	if dotenvErr != nil {
		log.Warn().Msg(".env file not found, relying on environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(exitcode.ConfigError)
	}
	if cfg.SessionSecretGenerated {
		log.Warn().Msg("SESSION_SECRET not set, sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := openDB(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	if conn != nil {
		defer conn.Close()
		if serveMigrate {
			if err := db.ApplyMigrations(ctx, conn, log); err != nil {
				log.Error().Err(err).Msg("migration failed")
				os.Exit(exitcode.MigrationError)
			}
		}
	}
	metrics.Init(conn, log)

	hub := web.NewHub(log)
	go hub.Run(ctx)

	repo, err := buildRepository(cfg, conn)
	if err != nil {
		return err
	}
	billingService, err := newBillingService(repo, cfg, billingapp.WithNotifier(hub))
	if err != nil {
		return err
	}
	seeded, err := billingapp.SeedDemo(ctx, billingService, cfg.AdmissionID, cfg.PatientName, nil)
	if err != nil {
		log.Error().Err(err).Msg("seed demo admission failed")
		os.Exit(exitcode.RuntimeError)
	}
	if seeded {
		log.Info().Str("admission_id", cfg.AdmissionID).Msg("seeded demo admission")
	}

	rules, err := coverage.LoadRules(cfg.CoverageRulesFile)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.CoverageRulesFile).Msg("load coverage rules failed")
		os.Exit(exitcode.ConfigError)
	}
	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	recorder, err := buildInteractionLogger(ctx, cfg, conn, log)
	if err != nil {
		log.Error().Err(err).Msg("interaction log setup failed")
		os.Exit(exitcode.ConfigError)
	}
	explainer, err := explainapp.NewService(generator, coverage.NewClassifier(rules),
		explainapp.WithInteractionLogger(recorder),
		explainapp.WithLogger(log),
	)
	if err != nil {
		return err
	}

	sessions, err := session.NewStore([]byte(cfg.SessionSecret))
	if err != nil {
		return err
	}
	sessions.StartPruner(ctx, 30*time.Minute)

	page, err := web.NewHandler(billingService, explainer, sessions, cfg.AdmissionID, log)
	if err != nil {
		return err
	}
	explanationsHandler, err := web.NewAPIHandler(billingService, explainer, sessions, cfg.AdmissionID, log)
	if err != nil {
		return err
	}
	billingHandler, err := billinghttp.NewHandler(billingService, log)
	if err != nil {
		return err
	}

	if cfg.SimulatorInterval > 0 {
		simulator, err := billingapp.NewSimulator(billingService, cfg.AdmissionID, cfg.SimulatorInterval, log, nil)
		if err != nil {
			return err
		}
		go simulator.Start(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/", page)
	mux.Handle("/api/v1/admissions/", billingHandler)
	mux.Handle("/api/v1/explanations", explanationsHandler)
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(mux, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Str("generator", cfg.Gemini.Generator).Msg("http listening")
	serveErr := server.ListenAndServe()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recorder.Close(flushCtx); err != nil {
		log.Warn().Err(err).Msg("interaction log flush incomplete")
	}
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		log.Error().Err(serveErr).Msg("http server failed")
		os.Exit(exitcode.RuntimeError)
	}
	return nil
}
