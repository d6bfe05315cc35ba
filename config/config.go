package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig defines the HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
}

// LLMConfig defines the language model used for project analysis.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	Host            string        `mapstructure:"host"`
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	APIKeyEnv       string        `mapstructure:"api_key_env"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxPromptLength int           `mapstructure:"max_prompt_length"`
}

// CatalogConfig defines where tool profiles are stored and seeded from.
type CatalogConfig struct {
	DBPath           string   `mapstructure:"db_path"`
	SeedDir          string   `mapstructure:"seed_dir"`
	MaxSeedDepth     int      `mapstructure:"max_seed_depth"`
	MaxFileReadSize  int64    `mapstructure:"max_file_read_size"`
	IgnoreDirs       []string `mapstructure:"ignore_dirs"`
	IgnorePrefixes   []string `mapstructure:"ignore_prefixes"`
	IgnoreExtensions []string `mapstructure:"ignore_extensions"`
}

// WeightsConfig holds the scoring weights.
type WeightsConfig struct {
	Popularity  float64 `mapstructure:"popularity"`
	Skill       float64 `mapstructure:"skill"`
	Integration float64 `mapstructure:"integration"`
	Technology  float64 `mapstructure:"technology"`
	Feature     float64 `mapstructure:"feature"`
}

// RecommendConfig defines the selection pipeline parameters.
type RecommendConfig struct {
	EssentialCategories []string      `mapstructure:"essential_categories"`
	ExtraCategories     []string      `mapstructure:"extra_categories"`
	Weights             WeightsConfig `mapstructure:"weights"`
}

// AuthConfig defines how session tokens are verified.
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTSecretEnv string        `mapstructure:"jwt_secret_env"`
	Issuer       string        `mapstructure:"issuer"`
	CookieName   string        `mapstructure:"cookie_name"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// BlueprintsConfig defines blueprint persistence.
type BlueprintsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig defines the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the top-level configuration struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Blueprints BlueprintsConfig `mapstructure:"blueprints"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// EnvPrefix is prepended to every environment override, e.g. STACKFAST_SERVER_PORT.
const EnvPrefix = "STACKFAST"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origin", "*")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.host", "http://127.0.0.1:11434")
	v.SetDefault("llm.model", "gemma3:latest")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.max_prompt_length", 4000)

	v.SetDefault("catalog.db_path", "data/stackfast.db")
	v.SetDefault("catalog.seed_dir", "catalog")
	v.SetDefault("catalog.max_seed_depth", 3)
	v.SetDefault("catalog.max_file_read_size", 1<<20)
	v.SetDefault("catalog.ignore_dirs", []string{".git", "node_modules"})
	v.SetDefault("catalog.ignore_prefixes", []string{".", "_"})
	v.SetDefault("catalog.ignore_extensions", []string{".md", ".txt"})

	v.SetDefault("recommend.essential_categories", []string{"Language Model", "Database", "Deployment Platform"})
	v.SetDefault("recommend.extra_categories", []string{"Code Generation"})
	v.SetDefault("recommend.weights.popularity", 40.0)
	v.SetDefault("recommend.weights.skill", 10.0)
	v.SetDefault("recommend.weights.integration", 8.0)
	v.SetDefault("recommend.weights.technology", 12.0)
	v.SetDefault("recommend.weights.feature", 4.0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_secret_env", "STACKFAST_JWT_SECRET")
	v.SetDefault("auth.issuer", "stackfast")
	v.SetDefault("auth.cookie_name", "session")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("blueprints.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads the configuration file at path, applies defaults and
// STACKFAST_* environment overrides. A missing file is not an error: the
// defaults and environment alone make a usable configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.resolveSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSecrets fills secrets that are given indirectly through an
// environment variable name.
func (c *Config) resolveSecrets() {
	if c.LLM.APIKey == "" && c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWTSecretEnv != "" {
		c.Auth.JWTSecret = os.Getenv(c.Auth.JWTSecretEnv)
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.LLM.MaxPromptLength <= 0 {
		return fmt.Errorf("llm.max_prompt_length must be positive")
	}
	if len(c.Recommend.EssentialCategories) == 0 {
		return fmt.Errorf("recommend.essential_categories must not be empty")
	}
	return nil
}

// RequireAuthSecret reports an error when no JWT secret is available. Only
// commands that verify or mint tokens need one.
func (c *Config) RequireAuthSecret() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is empty: set it in the config file or through $%s", c.Auth.JWTSecretEnv)
	}
	return nil
}
