package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	GeneratorGemini = "gemini"
	GeneratorFake   = "fake"
)

// GeminiConfig configures the explanation generator.
type GeminiConfig struct {
	Generator string        `yaml:"generator"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// InteractionLogConfig selects interaction log sinks.
type InteractionLogConfig struct {
	WebhookURL    string `yaml:"webhook_url"`
	WebhookAPIKey string `yaml:"webhook_api_key"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Region      string `yaml:"s3_region"`
	S3Prefix      string `yaml:"s3_prefix"`
	Postgres      bool   `yaml:"postgres"`
	BufferSize    int    `yaml:"buffer_size"`
}

// Config holds runtime configuration.
type Config struct {
	DatabaseURL       string               `yaml:"database_url"`
	HTTPAddr          string               `yaml:"http_addr"`
	LogFormat         string               `yaml:"log_format"`
	Store             string               `yaml:"store"`
	AdmissionID       string               `yaml:"admission_id"`
	PatientName       string               `yaml:"patient_name"`
	Currency          string               `yaml:"currency"`
	SessionSecret     string               `yaml:"session_secret"`
	CoverageRulesFile string               `yaml:"coverage_rules_file"`
	SimulatorInterval time.Duration        `yaml:"simulator_interval"`
	Gemini            GeminiConfig         `yaml:"gemini"`
	InteractionLog    InteractionLogConfig `yaml:"interaction_log"`

	// SessionSecretGenerated is set when no secret was configured and a
	// random one was created for this process.
	SessionSecretGenerated bool `yaml:"-"`
	// StoreDefaulted is set when Store was derived from DatabaseURL rather
	// than configured.
	StoreDefaulted bool `yaml:"-"`
}

// LoadDotEnv reads .env files into the environment. A missing file is
// reported through the error and can be ignored.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

// Load builds the config from environment variables, then overlays the YAML
// file named by MEDIBILL_CONFIG when set.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		LogFormat:         getenvDefault("LOG_FORMAT", "text"),
		Store:             getenvDefault("MEDIBILL_STORE", ""),
		AdmissionID:       getenvDefault("MEDIBILL_ADMISSION_ID", "demo-admission"),
		PatientName:       getenvDefault("MEDIBILL_PATIENT_NAME", "Demo Patient"),
		Currency:          getenvDefault("MEDIBILL_CURRENCY", "INR"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		CoverageRulesFile: os.Getenv("COVERAGE_RULES_FILE"),
		SimulatorInterval: getenvDuration("SIMULATOR_INTERVAL", 0),
		Gemini: GeminiConfig{
			Generator: getenvDefault("MEDIBILL_GENERATOR", GeneratorGemini),
			APIKey:    os.Getenv("GEMINI_API_KEY"),
			Model:     getenvDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:   getenvDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout:   getenvDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		InteractionLog: InteractionLogConfig{
			WebhookURL:    os.Getenv("TRACKING_WEBHOOK_URL"),
			WebhookAPIKey: os.Getenv("TRACKING_API_KEY"),
			S3Bucket:      os.Getenv("INTERACTION_LOG_S3_BUCKET"),
			S3Region:      getenvDefault("INTERACTION_LOG_S3_REGION", "us-east-1"),
			S3Prefix:      getenvDefault("INTERACTION_LOG_S3_PREFIX", "interactions"),
			Postgres:      getenvBool("INTERACTION_LOG_DB", false),
			BufferSize:    getenvIntDefault("INTERACTION_LOG_BUFFER", 256),
		},
	}

	if path := os.Getenv("MEDIBILL_CONFIG"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if cfg.Store == "" {
		cfg.Store = defaultStore(cfg.DatabaseURL)
		cfg.StoreDefaulted = true
	}
	cfg.Store = strings.ToLower(cfg.Store)
	cfg.Gemini.Generator = strings.ToLower(cfg.Gemini.Generator)
	cfg.Currency = strings.ToUpper(cfg.Currency)

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return cfg, err
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}
	return cfg, nil
}

// SetDatabaseURL replaces the DSN. A defaulted store follows it.
func (c *Config) SetDatabaseURL(dsn string) {
	c.DatabaseURL = dsn
	if c.StoreDefaulted {
		c.Store = defaultStore(dsn)
	}
}

// SetStore pins the store explicitly.
func (c *Config) SetStore(store string) {
	c.Store = strings.ToLower(store)
	c.StoreDefaulted = false
}

func defaultStore(dsn string) string {
	if dsn != "" {
		return StorePostgres
	}
	return StoreMemory
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate checks the settings needed to serve.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch c.Gemini.Generator {
	case GeneratorFake:
	case GeneratorGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("GEMINI_API_KEY is required (or set MEDIBILL_GENERATOR=fake)")
		}
	default:
		return fmt.Errorf("unknown generator %q", c.Gemini.Generator)
	}
	if c.AdmissionID == "" {
		return errors.New("MEDIBILL_ADMISSION_ID is required")
	}
	if c.InteractionLog.Postgres && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres interaction log")
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
