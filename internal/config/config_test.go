package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("PERSONA_LLM_API_KEY", "")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, [2]string{"抖音", "小红书"}, cfg.CalendarPlatforms())
	assert.Empty(t, cfg.LLM.APIKey, "no API key may be baked in")
}

func TestLoadAPIKeyFromLegacyEnv(t *testing.T) {
	t.Setenv("PERSONA_LLM_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "sk-from-env")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLM:      LLMConfig{Provider: ProviderOpenAI, BaseURL: "https://example.test/v1", APIKey: "k"},
			Calendar: CalendarConfig{Platforms: []string{"抖音", "小红书"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.LLM.APIKey = "" }, wantErr: "llm.api_key"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "bard" }, wantErr: "unknown llm.provider"},
		{name: "anthropic without key", mutate: func(c *Config) { c.LLM.Provider = ProviderAnthropic }, wantErr: "anthropic.api_key"},
		{name: "three platforms", mutate: func(c *Config) { c.Calendar.Platforms = append(c.Calendar.Platforms, "视频号") }, wantErr: "exactly two"},
		{name: "sheets without id", mutate: func(c *Config) { c.Sheets.Enabled = true }, wantErr: "spreadsheet_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
