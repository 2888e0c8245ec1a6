package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`
	Exchange   ExchangeConfig   `yaml:"exchange" mapstructure:"exchange"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds oracle API settings for both calls.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	OpusModel   string `yaml:"opus_model" mapstructure:"opus_model"`

	// Call 1 (scoring) profile. Scoring always runs on the Opus-class
	// model with extended thinking, regardless of the narrative mode.
	ScoringMaxTokens      int64 `yaml:"scoring_max_tokens" mapstructure:"scoring_max_tokens"`
	ScoringThinkingBudget int64 `yaml:"scoring_thinking_budget" mapstructure:"scoring_thinking_budget"`
	ScoringTimeoutSecs    int   `yaml:"scoring_timeout_secs" mapstructure:"scoring_timeout_secs"`

	// Call 2 (narrative) profile.
	NarrativeQuickMaxTokens     int64 `yaml:"narrative_quick_max_tokens" mapstructure:"narrative_quick_max_tokens"`
	NarrativeDeepMaxTokens      int64 `yaml:"narrative_deep_max_tokens" mapstructure:"narrative_deep_max_tokens"`
	NarrativeDeepThinkingBudget int64 `yaml:"narrative_deep_thinking_budget" mapstructure:"narrative_deep_thinking_budget"`
	NarrativeTimeoutSecs        int   `yaml:"narrative_timeout_secs" mapstructure:"narrative_timeout_secs"`

	// Transport behavior.
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// EvaluationConfig configures parser/validator behavior.
type EvaluationConfig struct {
	// PercentTolerance is the maximum allowed gap, in percentage points,
	// between a percentage the oracle reports and the value recomputed
	// from its own counts before the parser overwrites it.
	PercentTolerance float64 `yaml:"percent_tolerance" mapstructure:"percent_tolerance"`
}

// ExchangeConfig holds currency conversion rates used to derive the
// Price (EUR) column.
type ExchangeConfig struct {
	GBPToEUR float64 `yaml:"gbp_to_eur" mapstructure:"gbp_to_eur"`
}

// ReportConfig configures the XLSX export.
type ReportConfig struct {
	OutDir    string `yaml:"out_dir" mapstructure:"out_dir"`
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
	FontName  string `yaml:"font_name" mapstructure:"font_name"`
	FontSize  int    `yaml:"font_size" mapstructure:"font_size"`

	// Confidence Score tier boundaries (inclusive minimums).
	ConfidenceHighMin int `yaml:"confidence_high_min" mapstructure:"confidence_high_min"`
	ConfidenceMidMin  int `yaml:"confidence_mid_min" mapstructure:"confidence_mid_min"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-6")
	v.SetDefault("anthropic.opus_model", "claude-opus-4-6")
	v.SetDefault("anthropic.scoring_max_tokens", 32000)
	v.SetDefault("anthropic.scoring_thinking_budget", 16000)
	v.SetDefault("anthropic.scoring_timeout_secs", 600)
	v.SetDefault("anthropic.narrative_quick_max_tokens", 4096)
	v.SetDefault("anthropic.narrative_deep_max_tokens", 16000)
	v.SetDefault("anthropic.narrative_deep_thinking_budget", 8000)
	v.SetDefault("anthropic.narrative_timeout_secs", 300)
	v.SetDefault("anthropic.max_retries", 2)
	v.SetDefault("anthropic.requests_per_minute", 10)
	v.SetDefault("evaluation.percent_tolerance", 0.1)
	v.SetDefault("exchange.gbp_to_eur", 1.17)
	v.SetDefault("report.out_dir", ".")
	v.SetDefault("report.sheet_name", "SKU Data")
	v.SetDefault("report.font_name", "Arial")
	v.SetDefault("report.font_size", 10)
	v.SetDefault("report.confidence_high_min", 75)
	v.SetDefault("report.confidence_mid_min", 55)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
