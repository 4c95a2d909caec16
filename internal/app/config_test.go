package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyEnvToConfig_FillsGapsOnly(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("DEFAULT_GEMINI_MODEL", "env-model")
	t.Setenv("TRUSTED_BOOK_DOMAINS", "amazon.co.jp, hanmoto.com ,")
	t.Setenv("DISABLE_TRUSTED_DOMAINS", "true")

	cfg := Config{DefaultModel: "explicit-model"}
	ApplyEnvToConfig(&cfg)

	if cfg.GeminiAPIKey != "env-key" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.DefaultModel != "explicit-model" {
		t.Fatalf("explicit value must win: %q", cfg.DefaultModel)
	}
	if len(cfg.TrustedBookDomains) != 2 || cfg.TrustedBookDomains[1] != "hanmoto.com" {
		t.Fatalf("csv parsing wrong: %v", cfg.TrustedBookDomains)
	}
	if !cfg.DisableTrustedDomains {
		t.Fatal("bool env not applied")
	}
}

func TestLoadConfigFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
listen: ":9000"
db: /data/shiori.db
generation:
  backend: gemini
  model: gemini-2.5-pro
  key: file-key
search:
  provider: google_cse
  googleKey: gkey
  cseId: cseid
trust:
  disable: true
  bookDomains: [amazon.co.jp]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{DefaultModel: "flag-model"}
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultModel != "flag-model" {
		t.Fatalf("flag value must win over file: %q", cfg.DefaultModel)
	}
	if cfg.ListenAddr != ":9000" || cfg.DBPath != "/data/shiori.db" || cfg.GeminiAPIKey != "file-key" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if !cfg.DisableTrustedDomains || len(cfg.TrustedBookDomains) != 1 {
		t.Fatalf("trust section not applied: %+v", cfg)
	}
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	if err := LoadConfigFile("/no/such/file.yml", &Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{DBPath: "x.db", GeminiAPIKey: "k"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (&Config{DBPath: "x.db"}).Validate(); err == nil {
		t.Fatal("gemini backend without key must fail")
	}
	if err := (&Config{DBPath: "x.db", GenerationBackend: "openai", LLMBaseURL: "http://gw"}).Validate(); err != nil {
		t.Fatalf("openai backend with base url rejected: %v", err)
	}
	if err := (&Config{DBPath: "x.db", GenerationBackend: "mock"}).Validate(); err != nil {
		t.Fatalf("mock backend needs no credentials: %v", err)
	}
	if err := (&Config{GeminiAPIKey: "k"}).Validate(); err == nil {
		t.Fatal("missing db path must fail")
	}
	if err := (&Config{DBPath: "x.db", GenerationBackend: "other"}).Validate(); err == nil {
		t.Fatal("unknown backend must fail")
	}
}
