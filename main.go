package main

import (
	"os"

	"github.com/spf13/cobra"

	"medibill-ai/internal/config"
	"medibill-ai/internal/exitcode"
)

var (
	cfg       config.Config
	dotenvErr error

	flagDSN       string
	flagLogFormat string
	flagStore     string
	flagAdmission string
)

var rootCmd = &cobra.Command{
	Use:          "medibill",
	Short:        "Plain-language hospital bill explanations",
	Long:         "Serves a hospital bill for one admission and explains each charge in plain, multilingual language with a coverage hint.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenvErr = config.LoadDotEnv()
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		flags := cmd.Flags()
		if flags.Changed("dsn") {
			cfg.SetDatabaseURL(flagDSN)
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = flagLogFormat
		}
		if flags.Changed("store") {
			cfg.SetStore(flagStore)
		}
		if flags.Changed("admission") {
			cfg.AdmissionID = flagAdmission
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDSN, "dsn", "", "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&flagStore, "store", "", "Billing store: postgres or memory (or set MEDIBILL_STORE)")
	pf.StringVar(&flagAdmission, "admission", "", "Admission id to serve (or set MEDIBILL_ADMISSION_ID)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
