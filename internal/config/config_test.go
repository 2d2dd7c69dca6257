package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsValidation(t *testing.T) {
	cfg := NewForTesting()
	require.NoError(t, cfg.ResolveDefaults())

	bad := NewForTesting()
	bad.SlotBudget = 0
	require.Error(t, bad.ResolveDefaults())

	bad = NewForTesting()
	bad.ImageCadenceMin = 5
	bad.ImageCadenceMax = 3
	require.Error(t, bad.ResolveDefaults())

	bad = NewForTesting()
	bad.SemanticMinSimilarity = 1.5
	require.Error(t, bad.ResolveDefaults())

	bad = NewForTesting()
	bad.VectorSize = 0
	require.Error(t, bad.ResolveDefaults())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VITTE_CHAT_HTTP_PORT", "9191")
	t.Setenv("VITTE_CHAT_SLOT_BUDGET", "3")
	t.Setenv("VITTE_CHAT_LLM_MODEL", "deepseek/deepseek-v3")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.HTTPPort)
	require.Equal(t, 3, cfg.SlotBudget)
	require.Equal(t, "deepseek/deepseek-v3", cfg.LLMModel)
	require.Equal(t, ":9191", cfg.GetHTTPAddr())
}

func TestDefaultsAreSane(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, 0.85, cfg.LLMTemperature)
	require.Equal(t, 800, cfg.LLMMaxTokens)
	require.Equal(t, 3, cfg.ImageCadenceMin)
	require.Equal(t, 5, cfg.ImageCadenceMax)
	require.Equal(t, 1536, cfg.VectorSize)
}
