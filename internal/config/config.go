package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Social    SocialConfig    `mapstructure:"social"`
	Trends    TrendsConfig    `mapstructure:"trends"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // only sqlite is supported
	DSN    string `mapstructure:"dsn"`
}

// Provider names accepted in llm.provider
const (
	ProviderOpenAI    = "openai" // any OpenAI-compatible chat endpoint (DeepSeek by default)
	ProviderAnthropic = "anthropic"
)

// LLMConfig holds the chat-completion endpoint settings
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig holds Claude API settings, used when llm.provider is "anthropic"
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	LLMRequestsPerMinute    int `mapstructure:"llm_requests_per_minute"`
	LLMBurst                int `mapstructure:"llm_burst"`
	SocialRequestsPerMinute int `mapstructure:"social_requests_per_minute"`
	SheetsRequestsPerMinute int `mapstructure:"sheets_requests_per_minute"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// CalendarConfig holds content calendar settings
type CalendarConfig struct {
	Platforms []string `mapstructure:"platforms"` // exactly two, alternated by position
	ExportDir string   `mapstructure:"export_dir"`
	Formats   []string `mapstructure:"formats"` // csv, xlsx, json
}

// SheetsConfig holds Google Sheets export settings
type SheetsConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// SocialConfig holds competitor lookup settings
type SocialConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	DouyinProfile  string        `mapstructure:"douyin_profile_url"` // %s is replaced by the account
	UserAgent      string        `mapstructure:"user_agent"`
}

// TrendsConfig holds industry RSS feeds used as hot-topic context
type TrendsConfig struct {
	Enabled  bool                `mapstructure:"enabled"`
	MaxItems int                 `mapstructure:"max_items"`
	MaxAge   time.Duration       `mapstructure:"max_age"`
	Feeds    map[string][]string `mapstructure:"feeds"`    // industry -> feed URLs
	Keywords map[string][]string `mapstructure:"keywords"` // industry -> seed keywords
}

// SchedulerConfig holds daemon settings
type SchedulerConfig struct {
	TopicsRefreshCron string        `mapstructure:"topics_refresh_cron"`
	RefreshWindow     time.Duration `mapstructure:"refresh_window"`
	HTTPAddr          string        `mapstructure:"http_addr"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".persona-agent"))
		}
	}

	v.SetEnvPrefix("PERSONA")
	v.AutomaticEnv()

	// Viper doesn't auto-bind underscored nested keys
	v.BindEnv("llm.api_key", "PERSONA_LLM_API_KEY", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.provider", "PERSONA_LLM_PROVIDER")
	v.BindEnv("llm.base_url", "PERSONA_LLM_BASE_URL")
	v.BindEnv("llm.model", "PERSONA_LLM_MODEL")
	v.BindEnv("anthropic.api_key", "PERSONA_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("database.dsn", "PERSONA_DATABASE_DSN")
	v.BindEnv("sheets.enabled", "PERSONA_SHEETS_ENABLED")
	v.BindEnv("sheets.spreadsheet_id", "PERSONA_SHEETS_SPREADSHEET_ID")
	v.BindEnv("sheets.credentials_file", "PERSONA_SHEETS_CREDENTIALS_FILE")
	v.BindEnv("sheets.service_account_json", "PERSONA_SHEETS_SERVICE_ACCOUNT_JSON")
	v.BindEnv("scheduler.http_addr", "PERSONA_SCHEDULER_HTTP_ADDR")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// There is deliberately no default for any API key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/analytics.db")

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", 120*time.Second)

	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 4096)

	v.SetDefault("rate_limit.llm_requests_per_minute", 30)
	v.SetDefault("rate_limit.llm_burst", 4)
	v.SetDefault("rate_limit.social_requests_per_minute", 20)
	v.SetDefault("rate_limit.sheets_requests_per_minute", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("calendar.platforms", []string{"抖音", "小红书"})
	v.SetDefault("calendar.export_dir", ".")
	v.SetDefault("calendar.formats", []string{"csv", "xlsx", "json"})

	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.sheet_name", "Calendar")

	v.SetDefault("social.timeout", 15*time.Second)
	v.SetDefault("social.max_concurrency", 4)
	v.SetDefault("social.douyin_profile_url", "https://www.douyin.com/user/%s")
	v.SetDefault("social.user_agent", "Mozilla/5.0 (compatible; persona-agent/1.0)")

	v.SetDefault("trends.enabled", false)
	v.SetDefault("trends.max_items", 10)
	v.SetDefault("trends.max_age", 7*24*time.Hour)

	v.SetDefault("scheduler.topics_refresh_cron", "0 9 * * 1") // Mondays 9am
	v.SetDefault("scheduler.refresh_window", 30*24*time.Hour)
	v.SetDefault("scheduler.http_addr", ":10000")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required (set PERSONA_LLM_API_KEY or DEEPSEEK_API_KEY)")
		}
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required")
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("anthropic.api_key is required when llm.provider is anthropic")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if len(c.Calendar.Platforms) != 2 {
		return fmt.Errorf("calendar.platforms must list exactly two platforms, got %d", len(c.Calendar.Platforms))
	}
	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required when sheets export is enabled")
	}
	return nil
}

// CalendarPlatforms returns the two alternating calendar platforms
func (c *Config) CalendarPlatforms() [2]string {
	var p [2]string
	copy(p[:], c.Calendar.Platforms)
	return p
}
