package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	billingapp "medibill-ai/internal/billing/application"
	billingpg "medibill-ai/internal/billing/infrastructure/postgres"
	"medibill-ai/internal/db"
	"medibill-ai/internal/exitcode"
	"medibill-ai/internal/logging"
)

var (
	simulateInterval time.Duration
	simulateCount    int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Append simulated charges to the admission",
	Long:  "Acts as the hospital billing system: appends a charge from the demo catalog on every tick until interrupted or --count charges were added.",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().DurationVar(&simulateInterval, "interval", 0, "Time between charges (or set SIMULATOR_INTERVAL, default 30s)")
	simulateCmd.Flags().IntVar(&simulateCount, "count", 0, "Stop after this many charges (0 runs until interrupted)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}
	interval := simulateInterval
	if interval <= 0 {
		interval = cfg.SimulatorInterval
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer conn.Close()

	service, err := newBillingService(billingpg.NewRepository(conn), cfg)
	if err != nil {
		return err
	}
	simulator, err := billingapp.NewSimulator(service, cfg.AdmissionID, interval, log, nil)
	if err != nil {
		return err
	}

	if simulateCount <= 0 {
		log.Info().Dur("interval", interval).Str("admission_id", cfg.AdmissionID).Msg("simulator running")
		simulator.Start(ctx)
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for added := 0; added < simulateCount; {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := simulator.Step(ctx); err != nil {
				log.Error().Err(err).Msg("simulated charge failed")
				continue
			}
			added++
		}
	}
	log.Info().Int("count", simulateCount).Msg("simulation finished")
	return nil
}
