package app

import (
	"os"
	"strings"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.DBPath, "DB_PATH")
	setString(&cfg.RedisURL, "REDIS_URL")

	setString(&cfg.GenerationBackend, "GENERATION_BACKEND")
	setString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.DefaultModel, "DEFAULT_GEMINI_MODEL")
	setString(&cfg.FallbackModel, "FALLBACK_GEMINI_MODEL")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")

	setString(&cfg.SearchProvider, "SEARCH_PROVIDER")
	setString(&cfg.GoogleAPIKey, "GOOGLE_API_KEY")
	setString(&cfg.GoogleCSEID, "GOOGLE_CSE_ID")
	setString(&cfg.SerpAPIKey, "SERPAPI_API_KEY")

	if !cfg.DisableTrustedDomains {
		cfg.DisableTrustedDomains = envBool("DISABLE_TRUSTED_DOMAINS")
	}
	if len(cfg.TrustedBookDomains) == 0 {
		if raw := os.Getenv("TRUSTED_BOOK_DOMAINS"); raw != "" {
			cfg.TrustedBookDomains = splitCSV(raw)
		}
	}
	if !cfg.Verbose {
		cfg.Verbose = envBool("VERBOSE")
	}
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
