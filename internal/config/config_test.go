package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-opus-4-6", cfg.Anthropic.OpusModel)
	assert.Equal(t, int64(32000), cfg.Anthropic.ScoringMaxTokens)
	assert.Equal(t, int64(16000), cfg.Anthropic.ScoringThinkingBudget)
	assert.Equal(t, 600, cfg.Anthropic.ScoringTimeoutSecs)
	assert.Equal(t, 2, cfg.Anthropic.MaxRetries)
	assert.Equal(t, 0.1, cfg.Evaluation.PercentTolerance)
	assert.Equal(t, 1.17, cfg.Exchange.GBPToEUR)
	assert.Equal(t, "SKU Data", cfg.Report.SheetName)
	assert.Equal(t, 75, cfg.Report.ConfidenceHighMin)
	assert.Equal(t, 55, cfg.Report.ConfidenceMidMin)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SHELF_ANTHROPIC_OPUS_MODEL", "claude-opus-override")
	t.Setenv("SHELF_EXCHANGE_GBP_TO_EUR", "1.25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-override", cfg.Anthropic.OpusModel)
	assert.Equal(t, 1.25, cfg.Exchange.GBPToEUR)
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
}
