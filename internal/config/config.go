// Package config assembles the process-wide configuration once at start-up:
// built-in defaults, then an optional YAML file, then .env and environment
// overrides. The result is validated and passed around by value.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"dealscout/internal/decision"
	"dealscout/internal/evidence"
	"dealscout/internal/scoring"
)

// Config is the complete configuration surface.
type Config struct {
	Decision  decision.Policy `yaml:"decision"`
	Scoring   scoring.Policy  `yaml:"scoring"`
	Evidence  evidence.Limits `yaml:"evidence"`
	Questions string          `yaml:"questions"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Search    SearchConfig    `yaml:"search"`
	Notify    NotifyConfig    `yaml:"notify"`
	Output    OutputConfig    `yaml:"output"`
}

// LogConfig selects slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// StoreConfig selects the report store backend.
type StoreConfig struct {
	Driver string      `yaml:"driver" validate:"oneof=sqlite mysql"`
	Path   string      `yaml:"path" validate:"required_if=Driver sqlite"`
	MySQL  MySQLConfig `yaml:"mysql"`
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// SearchConfig configures the web-search fallback provider.
type SearchConfig struct {
	Provider string        `yaml:"provider" validate:"oneof=news browser none"`
	FeedURL  string        `yaml:"feed_url" validate:"omitempty,url"`
	Language string        `yaml:"language"`
	Region   string        `yaml:"region"`
	Limit    int           `yaml:"limit" validate:"gte=1,lte=50"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
}

// NotifyConfig configures decision notifications.
type NotifyConfig struct {
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel" validate:"required_with=DiscordToken"`
}

// OutputConfig controls where rendered reports go.
type OutputConfig struct {
	Dir     string   `yaml:"dir" validate:"required"`
	Formats []string `yaml:"formats" validate:"dive,oneof=json md docx"`
}

// DefaultStorePath is the SQLite database used when none is configured.
const DefaultStorePath = ".dealscout/dealscout.db"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Decision: decision.DefaultPolicy(),
		Scoring:  scoring.DefaultPolicy(),
		Evidence: evidence.DefaultLimits(),
		Log:      LogConfig{Level: "info", Format: "text"},
		Store:    StoreConfig{Driver: "sqlite", Path: DefaultStorePath, MySQL: MySQLConfig{Host: "localhost", Port: "3306", Database: "dealscout"}},
		Search:   SearchConfig{Provider: "news", Language: "en-US", Region: "US", Limit: 5, Timeout: 15 * time.Second},
		Output:   OutputConfig{Dir: ".dealscout/reports", Formats: []string{"json", "md"}},
	}
}

var validate = validator.New()

// Validate checks every section.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load builds the configuration. path may be empty to skip the YAML file.
// A missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Env variable names.
const (
	EnvWMarket         = "DEALSCOUT_W_MARKET"
	EnvWComp           = "DEALSCOUT_W_COMP"
	EnvYesThreshold    = "DEALSCOUT_YES_THRESHOLD"
	EnvMaybeThreshold  = "DEALSCOUT_MAYBE_THRESHOLD"
	EnvMinSources      = "DEALSCOUT_MIN_SOURCES"
	EnvMaxRewrites     = "DEALSCOUT_MAX_REWRITES"
	EnvMaxSteps        = "DEALSCOUT_MAX_STEPS"
	EnvRunTimeout      = "DEALSCOUT_RUN_TIMEOUT"
	EnvRegRiskHighGood = "DEALSCOUT_REG_RISK_HIGH_IS_GOOD"
	EnvQuestions       = "DEALSCOUT_QUESTIONS"
	EnvLogLevel        = "DEALSCOUT_LOG_LEVEL"
	EnvLogFormat       = "DEALSCOUT_LOG_FORMAT"
	EnvDBDriver        = "DEALSCOUT_DB_DRIVER"
	EnvDBPath          = "DEALSCOUT_DB_PATH"
	EnvDBHost          = "DEALSCOUT_DB_HOST"
	EnvDBPort          = "DEALSCOUT_DB_PORT"
	EnvDBUsername      = "DEALSCOUT_DB_USERNAME"
	EnvDBPassword      = "DEALSCOUT_DB_PASSWORD"
	EnvDBDatabase      = "DEALSCOUT_DB_DATABASE"
	EnvSearchProvider  = "DEALSCOUT_SEARCH_PROVIDER"
	EnvDiscordToken    = "DEALSCOUT_DISCORD_BOT_TOKEN"
	EnvDiscordChannel  = "DEALSCOUT_DISCORD_CHANNEL"
	EnvOutputDir       = "DEALSCOUT_OUTPUT_DIR"
	EnvOutputFormats   = "DEALSCOUT_OUTPUT_FORMATS"
)

func applyEnv(c *Config) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{EnvWMarket, &c.Decision.WMarket},
		{EnvWComp, &c.Decision.WComp},
		{EnvYesThreshold, &c.Decision.YesThreshold},
		{EnvMaybeThreshold, &c.Decision.MaybeThreshold},
	}
	for _, f := range floats {
		if err := envFloat(f.key, f.dst); err != nil {
			return err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvMinSources, &c.Decision.MinSources},
		{EnvMaxRewrites, &c.Evidence.MaxRewrites},
		{EnvMaxSteps, &c.Evidence.MaxSteps},
	}
	for _, i := range ints {
		if err := envInt(i.key, i.dst); err != nil {
			return err
		}
	}

	if v := os.Getenv(EnvRunTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRunTimeout, err)
		}
		c.Evidence.Timeout = d
	}
	if v := os.Getenv(EnvRegRiskHighGood); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRegRiskHighGood, err)
		}
		c.Scoring.RegulatoryRiskHighIsGood = b
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvQuestions, &c.Questions},
		{EnvLogLevel, &c.Log.Level},
		{EnvLogFormat, &c.Log.Format},
		{EnvDBDriver, &c.Store.Driver},
		{EnvDBPath, &c.Store.Path},
		{EnvDBHost, &c.Store.MySQL.Host},
		{EnvDBPort, &c.Store.MySQL.Port},
		{EnvDBUsername, &c.Store.MySQL.Username},
		{EnvDBPassword, &c.Store.MySQL.Password},
		{EnvDBDatabase, &c.Store.MySQL.Database},
		{EnvSearchProvider, &c.Search.Provider},
		{EnvDiscordToken, &c.Notify.DiscordToken},
		{EnvDiscordChannel, &c.Notify.DiscordChannel},
		{EnvOutputDir, &c.Output.Dir},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}
	if v := os.Getenv(EnvOutputFormats); v != "" {
		c.Output.Formats = splitList(v)
	}
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
