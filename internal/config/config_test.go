package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.AgentMode != "auto" || cfg.AgentTimeout != 20*time.Second {
		t.Fatalf("agent = %q/%s, want auto/20s", cfg.AgentMode, cfg.AgentTimeout)
	}
	if cfg.SessionIdleTTL != 30*time.Minute || cfg.SessionMaxEntries != 10000 {
		t.Fatalf("session = %s/%d", cfg.SessionIdleTTL, cfg.SessionMaxEntries)
	}
	if cfg.IntentConfidenceFloor != 0.05 || cfg.IntentContinuityBoost != 0.15 {
		t.Fatalf("intent = %v/%v", cfg.IntentConfidenceFloor, cfg.IntentContinuityBoost)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("OpenAIModel = %q", cfg.OpenAIModel)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("AGENT_MODE", "HTTP")
	t.Setenv("AGENT_HTTP_URL", "http://localhost:7777/invoke")
	t.Setenv("AGENT_TIMEOUT", "5s")
	t.Setenv("SESSION_IDLE_TTL", "10m")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")
	t.Setenv("APP_RANDOM_SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.AgentMode != "http" || cfg.AgentHTTPURL != "http://localhost:7777/invoke" {
		t.Fatalf("agent = %q %q", cfg.AgentMode, cfg.AgentHTTPURL)
	}
	if cfg.AgentTimeout != 5*time.Second || cfg.SessionIdleTTL != 10*time.Minute {
		t.Fatalf("durations = %s %s", cfg.AgentTimeout, cfg.SessionIdleTTL)
	}
	if !cfg.AllowAnyOrigin || cfg.RandomSeed != 42 {
		t.Fatalf("AllowAnyOrigin/RandomSeed = %v/%d", cfg.AllowAnyOrigin, cfg.RandomSeed)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"AGENT_MODE":              "carrier-pigeon",
		"AGENT_TIMEOUT":           "10m",
		"SESSION_MAX_ENTRIES":     "0",
		"INTENT_CONFIDENCE_FLOOR": "1.5",
		"SERVICE_SOON_MILEAGE":    "40000",
		"LOG_LEVEL":               "chatty",
		"LOG_FORMAT":              "xml",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s expected error", key, value)
			}
		})
	}
}

func TestViperOverridesWinOverEnvironment(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("LOG_LEVEL", "warn")

	v := NewViper()
	v.Set(KeyLogLevel, "debug")
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadDotEnv(t *testing.T) {
	setCoreEnvEmpty(t)
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv(missing) error = %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("AGENT_MODE=mock\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("AGENT_MODE", "")
	os.Unsetenv("AGENT_MODE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AgentMode != "mock" {
		t.Fatalf("AgentMode = %q, want mock from .env", cfg.AgentMode)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_RANDOM_SEED",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"SESSION_MAX_ENTRIES",
		"SESSION_IDLE_TTL",
		"SESSION_JANITOR_INTERVAL",
		"SESSION_CONTEXT_TURNS",
		"AGENT_MODE",
		"AGENT_HTTP_URL",
		"AGENT_TIMEOUT",
		"OPENAI_API_KEY",
		"AGENT_OPENAI_MODEL",
		"AGENT_OPENAI_BASE_URL",
		"ANTHROPIC_API_KEY",
		"AGENT_ANTHROPIC_MODEL",
		"INTENT_CONFIDENCE_FLOOR",
		"INTENT_CONTINUITY_BOOST",
		"SERVICE_MAJOR_MILEAGE",
		"SERVICE_SOON_MILEAGE",
		"SERVICE_OVERDUE_MONTHS",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
