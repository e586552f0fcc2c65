package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BUDDY_PROVIDER", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gpt-4o", cfg.Models.Analyze)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Price)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("BUDDY_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadGeminiProvider(t *testing.T) {
	t.Setenv("BUDDY_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("BUDDY_PRICE_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Models.Price)
}

func TestLoadUnknownProvider(t *testing.T) {
	t.Setenv("BUDDY_PROVIDER", "anthropic")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUDDY_PROVIDER")
}

func TestLoadModelOverrides(t *testing.T) {
	t.Setenv("BUDDY_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BUDDY_ANALYZE_MODEL", "gpt-4.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Models.Analyze)
}
