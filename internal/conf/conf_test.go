package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.ListenAddr)
	assert.Equal(t, 30*time.Minute, config.SessionTTL)
	assert.Equal(t, 15*time.Minute, config.ModificationTTL)
	assert.Equal(t, 5*time.Second, config.BufferQuietTime)
	assert.Equal(t, 3, config.BufferMaxStalls)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "10m")
	t.Setenv("COOLDOWN_TTL", "2400")
	t.Setenv("BUFFER_MAX_STALLS", "5")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, config.SessionTTL)
	assert.Equal(t, 2400*time.Second, config.CooldownTTL, "bare integers read as seconds")
	assert.Equal(t, 5, config.BufferMaxStalls)
}

func TestLoadPromptsDefaults(t *testing.T) {
	prompts, err := LoadPrompts("")
	require.NoError(t, err)
	assert.NotEmpty(t, prompts.Classifier)
	assert.NotEmpty(t, prompts.Sales)
	assert.NotEmpty(t, prompts.Checkout)
}

func TestLoadPromptsMissingFile(t *testing.T) {
	prompts, err := LoadPrompts("/nonexistent/prompts.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts().Sales, prompts.Sales)
}

func TestLoadPromptsPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sales: |\n  Prompt customizado.\n"), 0o644))

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Contains(t, prompts.Sales, "customizado")
	assert.Equal(t, DefaultPrompts().Checkout, prompts.Checkout, "unset prompts keep defaults")
}

func TestLoadPromptsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - ["), 0o644))

	_, err := LoadPrompts(path)
	assert.Error(t, err)
}
