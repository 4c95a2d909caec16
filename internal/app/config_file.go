package app

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file YAML configuration schema. Nested sections
// map onto Config fields.
type FileConfig struct {
	Listen string `yaml:"listen"`
	DB     string `yaml:"db"`
	Redis  string `yaml:"redis"`

	Generation struct {
		Backend  string `yaml:"backend"`
		Model    string `yaml:"model"`
		Fallback string `yaml:"fallback"`
		Key      string `yaml:"key"`
		BaseURL  string `yaml:"base"`
	} `yaml:"generation"`

	Search struct {
		Provider  string `yaml:"provider"`
		GoogleKey string `yaml:"googleKey"`
		CSEID     string `yaml:"cseId"`
		SerpKey   string `yaml:"serpKey"`
	} `yaml:"search"`

	Trust struct {
		Disable     bool     `yaml:"disable"`
		BookDomains []string `yaml:"bookDomains"`
	} `yaml:"trust"`

	Verbose bool `yaml:"verbose"`
}

// LoadConfigFile reads a YAML config file and overlays it onto cfg. Values
// already set on cfg win; the file only fills gaps.
func LoadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	overlay := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	overlay(&cfg.ListenAddr, fc.Listen)
	overlay(&cfg.DBPath, fc.DB)
	overlay(&cfg.RedisURL, fc.Redis)
	overlay(&cfg.GenerationBackend, fc.Generation.Backend)
	overlay(&cfg.DefaultModel, fc.Generation.Model)
	overlay(&cfg.FallbackModel, fc.Generation.Fallback)
	overlay(&cfg.GeminiAPIKey, fc.Generation.Key)
	overlay(&cfg.LLMBaseURL, fc.Generation.BaseURL)
	overlay(&cfg.SearchProvider, fc.Search.Provider)
	overlay(&cfg.GoogleAPIKey, fc.Search.GoogleKey)
	overlay(&cfg.GoogleCSEID, fc.Search.CSEID)
	overlay(&cfg.SerpAPIKey, fc.Search.SerpKey)
	if !cfg.DisableTrustedDomains {
		cfg.DisableTrustedDomains = fc.Trust.Disable
	}
	if len(cfg.TrustedBookDomains) == 0 {
		cfg.TrustedBookDomains = fc.Trust.BookDomains
	}
	if !cfg.Verbose {
		cfg.Verbose = fc.Verbose
	}
	return nil
}
