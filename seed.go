package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	billingapp "medibill-ai/internal/billing/application"
	billingpg "medibill-ai/internal/billing/infrastructure/postgres"
	"medibill-ai/internal/db"
	"medibill-ai/internal/exitcode"
	"medibill-ai/internal/logging"
)

var seedPatient string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo admission and its opening charges",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedPatient, "patient", "", "Patient name for a new admission (or set MEDIBILL_PATIENT_NAME)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
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
	patient := cfg.PatientName
	if seedPatient != "" {
		patient = seedPatient
	}
	written, err := billingapp.SeedDemo(ctx, service, cfg.AdmissionID, patient, nil)
	if err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(exitcode.RuntimeError)
	}
	if !written {
		log.Info().Str("admission_id", cfg.AdmissionID).Msg("admission already has charges, nothing to seed")
		return nil
	}
	log.Info().Str("admission_id", cfg.AdmissionID).Msg("demo admission seeded")
	return nil
}
