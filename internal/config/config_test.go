package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "PG_DSN", "HTTP_ADDR", "LOG_FORMAT", "MEDIBILL_STORE",
		"MEDIBILL_ADMISSION_ID", "MEDIBILL_CURRENCY", "SESSION_SECRET", "MEDIBILL_GENERATOR",
		"GEMINI_API_KEY", "GEMINI_TIMEOUT", "MEDIBILL_CONFIG", "INTERACTION_LOG_DB",
		"SIMULATOR_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.HTTPAddr != ":8080" || cfg.Currency != "INR" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" || cfg.Gemini.Timeout != 30*time.Second {
		t.Fatalf("unexpected gemini defaults %+v", cfg.Gemini)
	}
	if !cfg.SessionSecretGenerated || len(cfg.SessionSecret) != 64 {
		t.Fatalf("expected generated secret")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/medibill")
	t.Setenv("MEDIBILL_CURRENCY", "usd")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("GEMINI_TIMEOUT", "5s")
	t.Setenv("INTERACTION_LOG_DB", "true")
	t.Setenv("SIMULATOR_INTERVAL", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StorePostgres {
		t.Fatalf("expected postgres store when DATABASE_URL set, got %s", cfg.Store)
	}
	if cfg.Currency != "USD" || cfg.SessionSecret != "s3cret" || cfg.SessionSecretGenerated {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Gemini.Timeout != 5*time.Second || !cfg.InteractionLog.Postgres {
		t.Fatalf("unexpected parsed values %+v", cfg)
	}
	if cfg.SimulatorInterval != 0 {
		t.Fatalf("invalid duration should fall back to 0")
	}
}

func TestLoadOverlayFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "medibill.yaml")
	data := []byte("http_addr: \":9090\"\nstore: memory\ngemini:\n  generator: fake\n  timeout: 10s\ninteraction_log:\n  webhook_url: http://tracker.local/events\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MEDIBILL_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.Gemini.Generator != GeneratorFake || cfg.Gemini.Timeout != 10*time.Second {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.InteractionLog.WebhookURL != "http://tracker.local/events" {
		t.Fatalf("unexpected webhook url %q", cfg.InteractionLog.WebhookURL)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("env default should survive overlay, got %q", cfg.Gemini.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDIBILL_CONFIG", "/nonexistent/medibill.yaml")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Store: StoreMemory, AdmissionID: "a", Gemini: GeminiConfig{Generator: GeneratorGemini, APIKey: "k"}}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	cases := map[string]func(c *Config){
		"postgres without dsn": func(c *Config) { c.Store = StorePostgres },
		"unknown store":        func(c *Config) { c.Store = "redis" },
		"missing api key":      func(c *Config) { c.Gemini.APIKey = "" },
		"unknown generator":    func(c *Config) { c.Gemini.Generator = "gpt" },
		"db log without dsn":   func(c *Config) { c.InteractionLog.Postgres = true },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if err := (Config{Store: StoreMemory, AdmissionID: "a", Gemini: GeminiConfig{Generator: GeneratorFake}}).Validate(); err != nil {
		t.Fatalf("fake generator needs no key: %v", err)
	}
	if !strings.Contains(Config{Store: StoreMemory, AdmissionID: "a", Gemini: GeminiConfig{Generator: GeneratorGemini}}.Validate().Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected key hint")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MEDIBILL_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MEDIBILL_TEST_DOTENV", "")
	os.Unsetenv("MEDIBILL_TEST_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if os.Getenv("MEDIBILL_TEST_DOTENV") != "loaded" {
		t.Fatalf("expected value from .env")
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for missing .env")
	}
}

func TestSetDatabaseURLMovesDefaultedStore(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreMemory || !cfg.StoreDefaulted {
		t.Fatalf("expected defaulted memory store, got %q", cfg.Store)
	}
	cfg.SetDatabaseURL("postgres://u@localhost/db")
	if cfg.Store != StorePostgres {
		t.Fatalf("expected postgres store after dsn, got %q", cfg.Store)
	}

	cfg.SetStore("Memory")
	cfg.SetDatabaseURL("postgres://u@localhost/other")
	if cfg.Store != StoreMemory {
		t.Fatalf("explicit store must win, got %q", cfg.Store)
	}
}

func TestSetDatabaseURLKeepsConfiguredStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDIBILL_STORE", "memory")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.SetDatabaseURL("postgres://u@localhost/db")
	if cfg.Store != StoreMemory {
		t.Fatalf("expected configured memory store, got %q", cfg.Store)
	}
}
