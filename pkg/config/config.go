package config

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	GitHub    GitHubConfig    `mapstructure:"github"`
	AI        AIConfig        `mapstructure:"ai"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Store     StoreConfig     `mapstructure:"store"`
	Alignment AlignmentConfig `mapstructure:"alignment"`
}

// GitHubConfig holds repository access configuration
type GitHubConfig struct {
	AuthMethod string `mapstructure:"auth_method"` // "token", "oauth", "gh_cli"
	ClientID   string `mapstructure:"client_id"`   // OAuth app client ID (for device flow)
	Token      string `mapstructure:"token"`       // FLIGHTCHECK_GITHUB_TOKEN env var takes precedence
	BaseURL    string `mapstructure:"base_url"`    // GitHub Enterprise API URL, empty for github.com
}

// AIConfig holds judgment provider configuration
type AIConfig struct {
	Provider string `mapstructure:"provider"` // "anthropic", "openai", "groq", "ollama", "gemini"
	Model    string `mapstructure:"model"`    // Empty means use the per-provider default
	APIKey   string `mapstructure:"api_key"`  // Provider API key (env var takes precedence)
	Endpoint string `mapstructure:"endpoint"` // Custom endpoint URL

	AnthropicModel string `mapstructure:"anthropic_model"`
	OpenAIModel    string `mapstructure:"openai_model"`
	GroqModel      string `mapstructure:"groq_model"`
	OllamaModel    string `mapstructure:"ollama_model"`
	OllamaEndpoint string `mapstructure:"ollama_endpoint"`
	GeminiModel    string `mapstructure:"gemini_model"`

	// Bedrock routes Anthropic requests through AWS Bedrock using the
	// default AWS credential chain.
	Bedrock    bool   `mapstructure:"bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// SnapshotConfig bounds repository analysis and snapshot reuse
type SnapshotConfig struct {
	Freshness      time.Duration `mapstructure:"freshness"`
	MaxFiles       int           `mapstructure:"max_files"`
	MaxFileSize    int           `mapstructure:"max_file_size"`
	IncludeContent bool          `mapstructure:"include_content"`
	CommitLimit    int           `mapstructure:"commit_limit"`
	MaxDepth       int           `mapstructure:"max_depth"`
	MaxEntries     int           `mapstructure:"max_entries"`
}

// StoreConfig selects where snapshots are persisted
type StoreConfig struct {
	Driver    string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path      string `mapstructure:"path"`   // SQLite database file
	DSN       string `mapstructure:"dsn"`    // PostgreSQL connection string
	CacheSize int    `mapstructure:"cache_size"`
}

// AlignmentConfig holds alignment check defaults
type AlignmentConfig struct {
	Model string `mapstructure:"model"` // Per-check model override, empty uses ai.model
}

// SecurityWarning represents a configuration security issue
type SecurityWarning struct {
	Field   string
	Message string
}

// ValidProviders lists the supported judgment providers.
var ValidProviders = []string{"anthropic", "openai", "groq", "ollama", "gemini"}

// ValidStoreDrivers lists the supported snapshot store drivers.
var ValidStoreDrivers = []string{"sqlite", "postgres"}

// ValidAuthMethods lists the supported GitHub authentication methods.
var ValidAuthMethods = []string{"token", "oauth", "gh_cli"}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	config := &Config{}

	setDefaults()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	var err error
	config.Store.Path, err = expandPath(config.Store.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to expand store.path")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return config, nil
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(ValidProviders, c.AI.Provider) {
		return fcerrors.NewConfigError("ai.provider", "must be one of anthropic, openai, groq, ollama, gemini")
	}
	if !slices.Contains(ValidStoreDrivers, c.Store.Driver) {
		return fcerrors.NewConfigError("store.driver", "must be sqlite or postgres")
	}
	if c.GitHub.AuthMethod != "" && !slices.Contains(ValidAuthMethods, c.GitHub.AuthMethod) {
		return fcerrors.NewConfigError("github.auth_method", "must be token, oauth or gh_cli")
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fcerrors.NewConfigError("store.dsn", "required when store.driver is postgres")
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return fcerrors.NewConfigError("store.path", "required when store.driver is sqlite")
	}

	positive := map[string]int{
		"snapshot.max_files":     c.Snapshot.MaxFiles,
		"snapshot.max_file_size": c.Snapshot.MaxFileSize,
		"snapshot.commit_limit":  c.Snapshot.CommitLimit,
		"snapshot.max_depth":     c.Snapshot.MaxDepth,
		"snapshot.max_entries":   c.Snapshot.MaxEntries,
	}
	for _, field := range slices.Sorted(maps.Keys(positive)) {
		if positive[field] <= 0 {
			return fcerrors.NewConfigError(field, "must be greater than zero")
		}
	}
	if c.Snapshot.Freshness < 0 {
		return fcerrors.NewConfigError("snapshot.freshness", "must not be negative")
	}
	if c.Store.CacheSize < 0 {
		return fcerrors.NewConfigError("store.cache_size", "must not be negative")
	}

	return nil
}

// CheckSecurityWarnings returns warnings for secrets stored in config files.
func CheckSecurityWarnings(config *Config) []SecurityWarning {
	var warnings []SecurityWarning

	if config.GitHub.Token != "" && os.Getenv("FLIGHTCHECK_GITHUB_TOKEN") == "" {
		warnings = append(warnings, SecurityWarning{
			Field:   "github.token",
			Message: "GitHub token is set in config file. For security, use FLIGHTCHECK_GITHUB_TOKEN or 'flightcheck auth login' instead.",
		})
	}

	if config.AI.APIKey != "" && os.Getenv("FLIGHTCHECK_AI_API_KEY") == "" {
		warnings = append(warnings, SecurityWarning{
			Field:   "ai.api_key",
			Message: "AI API key is set in config file. For security, use FLIGHTCHECK_AI_API_KEY or the provider's API key variable instead.",
		})
	}

	if config.Store.Driver == "postgres" && viper.InConfig("store.dsn") && os.Getenv("FLIGHTCHECK_STORE_DSN") == "" {
		warnings = append(warnings, SecurityWarning{
			Field:   "store.dsn",
			Message: "PostgreSQL DSN is set in config file and may contain a password. Consider FLIGHTCHECK_STORE_DSN.",
		})
	}

	return warnings
}

// ResolvedModel returns the model used for judgments when no per-check
// override is given.
func (c *AIConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case "anthropic":
		return c.AnthropicModel
	case "openai":
		return c.OpenAIModel
	case "groq":
		return c.GroqModel
	case "ollama":
		return c.OllamaModel
	case "gemini":
		return c.GeminiModel
	}
	return ""
}

// setDefaults sets default configuration values
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// GitHub defaults
	viper.SetDefault("github.auth_method", "gh_cli")
	viper.SetDefault("github.client_id", "")
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.base_url", "")

	// AI defaults
	viper.SetDefault("ai.provider", "anthropic")
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.endpoint", "")
	viper.SetDefault("ai.anthropic_model", "claude-sonnet-4-20250514")
	viper.SetDefault("ai.openai_model", "gpt-4o")
	viper.SetDefault("ai.groq_model", "llama-3.3-70b-versatile")
	viper.SetDefault("ai.ollama_model", "llama3.2")
	viper.SetDefault("ai.ollama_endpoint", "http://localhost:11434")
	viper.SetDefault("ai.gemini_model", "gemini-2.5-flash")
	viper.SetDefault("ai.bedrock", false)
	viper.SetDefault("ai.aws_region", "us-east-1")
	viper.SetDefault("ai.aws_profile", "")
	viper.SetDefault("ai.timeout", 2*time.Minute)

	// Snapshot defaults
	viper.SetDefault("snapshot.freshness", time.Hour)
	viper.SetDefault("snapshot.max_files", 50)
	viper.SetDefault("snapshot.max_file_size", 10000)
	viper.SetDefault("snapshot.include_content", true)
	viper.SetDefault("snapshot.commit_limit", 10)
	viper.SetDefault("snapshot.max_depth", 10)
	viper.SetDefault("snapshot.max_entries", 5000)

	// Store defaults
	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.path", filepath.Join(homeDir, ".local", "share", "flightcheck", "snapshots.db"))
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("store.cache_size", 64)

	// Alignment defaults
	viper.SetDefault("alignment.model", "")
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, path[1:]), nil
}
