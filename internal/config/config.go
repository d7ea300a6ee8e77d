package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ent0n29/contactcenter/internal/agentcore"
)

// Config contains all runtime settings for the contact-center service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool
	// RandomSeed of 0 seeds template and profile selection from the clock.
	RandomSeed uint64

	LogLevel  string
	LogFormat string

	SessionMaxEntries      int
	SessionIdleTTL         time.Duration
	SessionJanitorInterval time.Duration
	SessionContextTurns    int

	AgentMode       string
	AgentHTTPURL    string
	AgentTimeout    time.Duration
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string

	IntentConfidenceFloor float64
	IntentContinuityBoost float64
	ServiceMajorMileage   int
	ServiceSoonMileage    int
	ServiceOverdueMonths  int
}

// Keys are dotted viper keys; each resolves from the upper-cased env name
// with dots replaced by underscores (app.bind_addr -> APP_BIND_ADDR).
const (
	KeyBindAddr         = "app.bind_addr"
	KeyShutdownTimeout  = "app.shutdown_timeout"
	KeyMetricsNamespace = "app.metrics_namespace"
	KeyAllowAnyOrigin   = "app.allow_any_origin"
	KeyRandomSeed       = "app.random_seed"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"

	KeySessionMaxEntries      = "session.max_entries"
	KeySessionIdleTTL         = "session.idle_ttl"
	KeySessionJanitorInterval = "session.janitor_interval"
	KeySessionContextTurns    = "session.context_turns"

	KeyAgentMode       = "agent.mode"
	KeyAgentHTTPURL    = "agent.http_url"
	KeyAgentTimeout    = "agent.timeout"
	KeyOpenAIAPIKey    = "openai.api_key"
	KeyOpenAIModel     = "agent.openai_model"
	KeyOpenAIBaseURL   = "agent.openai_base_url"
	KeyAnthropicAPIKey = "anthropic.api_key"
	KeyAnthropicModel  = "agent.anthropic_model"

	KeyIntentConfidenceFloor = "intent.confidence_floor"
	KeyIntentContinuityBoost = "intent.continuity_boost"
	KeyServiceMajorMileage   = "service.major_mileage"
	KeyServiceSoonMileage    = "service.soon_mileage"
	KeyServiceOverdueMonths  = "service.overdue_months"
)

var defaults = map[string]any{
	KeyBindAddr:         ":8080",
	KeyShutdownTimeout:  15 * time.Second,
	KeyMetricsNamespace: "contactcenter",
	KeyAllowAnyOrigin:   false,
	KeyRandomSeed:       0,

	KeyLogLevel:  "info",
	KeyLogFormat: "json",

	KeySessionMaxEntries:      10000,
	KeySessionIdleTTL:         30 * time.Minute,
	KeySessionJanitorInterval: time.Minute,
	KeySessionContextTurns:    5,

	KeyAgentMode:       agentcore.ModeAuto,
	KeyAgentHTTPURL:    "",
	KeyAgentTimeout:    20 * time.Second,
	KeyOpenAIAPIKey:    "",
	KeyOpenAIModel:     "gpt-4o-mini",
	KeyOpenAIBaseURL:   "",
	KeyAnthropicAPIKey: "",
	KeyAnthropicModel:  "claude-3-5-haiku-latest",

	KeyIntentConfidenceFloor: 0.05,
	KeyIntentContinuityBoost: 0.15,
	KeyServiceMajorMileage:   30000,
	KeyServiceSoonMileage:    15000,
	KeyServiceOverdueMonths:  6,
}

// NewViper returns a viper instance with every key defaulted and bound to
// its environment variable.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	return FromViper(NewViper())
}

// FromViper decodes and validates cfg from v, which may carry bound flags
// on top of the environment.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		BindAddr:         strings.TrimSpace(v.GetString(KeyBindAddr)),
		ShutdownTimeout:  v.GetDuration(KeyShutdownTimeout),
		MetricsNamespace: strings.TrimSpace(v.GetString(KeyMetricsNamespace)),
		AllowAnyOrigin:   v.GetBool(KeyAllowAnyOrigin),
		RandomSeed:       v.GetUint64(KeyRandomSeed),

		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),

		SessionMaxEntries:      v.GetInt(KeySessionMaxEntries),
		SessionIdleTTL:         v.GetDuration(KeySessionIdleTTL),
		SessionJanitorInterval: v.GetDuration(KeySessionJanitorInterval),
		SessionContextTurns:    v.GetInt(KeySessionContextTurns),

		AgentMode:       strings.ToLower(strings.TrimSpace(v.GetString(KeyAgentMode))),
		AgentHTTPURL:    strings.TrimSpace(v.GetString(KeyAgentHTTPURL)),
		AgentTimeout:    v.GetDuration(KeyAgentTimeout),
		OpenAIAPIKey:    strings.TrimSpace(v.GetString(KeyOpenAIAPIKey)),
		OpenAIModel:     strings.TrimSpace(v.GetString(KeyOpenAIModel)),
		OpenAIBaseURL:   strings.TrimSpace(v.GetString(KeyOpenAIBaseURL)),
		AnthropicAPIKey: strings.TrimSpace(v.GetString(KeyAnthropicAPIKey)),
		AnthropicModel:  strings.TrimSpace(v.GetString(KeyAnthropicModel)),

		IntentConfidenceFloor: v.GetFloat64(KeyIntentConfidenceFloor),
		IntentContinuityBoost: v.GetFloat64(KeyIntentContinuityBoost),
		ServiceMajorMileage:   v.GetInt(KeyServiceMajorMileage),
		ServiceSoonMileage:    v.GetInt(KeyServiceSoonMileage),
		ServiceOverdueMonths:  v.GetInt(KeyServiceOverdueMonths),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BindAddr == "" {
		return errors.New("APP_BIND_ADDR must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q must be one of debug|info|warn|error", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be json or console", c.LogFormat)
	}
	if c.SessionMaxEntries <= 0 {
		return errors.New("SESSION_MAX_ENTRIES must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return errors.New("SESSION_IDLE_TTL must be positive")
	}
	if c.SessionJanitorInterval <= 0 {
		return errors.New("SESSION_JANITOR_INTERVAL must be positive")
	}
	if c.SessionContextTurns <= 0 {
		return errors.New("SESSION_CONTEXT_TURNS must be positive")
	}
	switch c.AgentMode {
	case agentcore.ModeAuto, agentcore.ModeHTTP, agentcore.ModeOpenAI, agentcore.ModeAnthropic, agentcore.ModeMock, agentcore.ModeDisabled:
	default:
		return fmt.Errorf("AGENT_MODE %q is not supported", c.AgentMode)
	}
	if c.AgentTimeout < time.Second || c.AgentTimeout > 2*time.Minute {
		return fmt.Errorf("AGENT_TIMEOUT %s must be between 1s and 2m", c.AgentTimeout)
	}
	if c.IntentConfidenceFloor < 0 || c.IntentConfidenceFloor > 1 {
		return errors.New("INTENT_CONFIDENCE_FLOOR must be within [0,1]")
	}
	if c.IntentContinuityBoost < 0 || c.IntentContinuityBoost > 1 {
		return errors.New("INTENT_CONTINUITY_BOOST must be within [0,1]")
	}
	if c.ServiceSoonMileage <= 0 || c.ServiceMajorMileage <= 0 {
		return errors.New("SERVICE_SOON_MILEAGE and SERVICE_MAJOR_MILEAGE must be positive")
	}
	if c.ServiceSoonMileage >= c.ServiceMajorMileage {
		return errors.New("SERVICE_SOON_MILEAGE must be below SERVICE_MAJOR_MILEAGE")
	}
	if c.ServiceOverdueMonths <= 0 {
		return errors.New("SERVICE_OVERDUE_MONTHS must be positive")
	}
	return nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
