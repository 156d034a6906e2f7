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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina search API settings (fallback provider).
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// SearchConfig configures retrieval behavior across providers.
type SearchConfig struct {
	QPS              float64 `yaml:"qps" mapstructure:"qps"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// PipelineConfig configures claim extraction and verification.
type PipelineConfig struct {
	PrecedingSentences  int `yaml:"preceding_sentences" mapstructure:"preceding_sentences"`
	FollowingSentences  int `yaml:"following_sentences" mapstructure:"following_sentences"`
	MaxQueriesPerClaim  int `yaml:"max_queries_per_claim" mapstructure:"max_queries_per_claim"`
	ResultsPerQuery     int `yaml:"results_per_query" mapstructure:"results_per_query"`
	MaxEvidence         int `yaml:"max_evidence" mapstructure:"max_evidence"`
	MaxRetries          int `yaml:"max_retries" mapstructure:"max_retries"`
	MaxConcurrentClaims int `yaml:"max_concurrent_claims" mapstructure:"max_concurrent_claims"`
	StageConcurrency    int `yaml:"stage_concurrency" mapstructure:"stage_concurrency"`
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

// Validate checks that required settings are present for the given run mode.
// Modes: "check" (one-shot CLI verification), "serve" (HTTP server).
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "check", "serve":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Tavily.Key == "" && c.Jina.Key == "" {
			missing = append(missing, "at least one of tavily.key or jina.key is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.Path == "" {
				missing = append(missing, "store.path is required for the sqlite driver")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url is required for the postgres driver")
			}
		default:
			missing = append(missing, "store.driver must be sqlite or postgres")
		}
	}

	if c.Pipeline.MaxConcurrentClaims < 1 || c.Pipeline.MaxConcurrentClaims > 50 {
		missing = append(missing, "pipeline.max_concurrent_claims must be between 1 and 50")
	}
	if c.Pipeline.StageConcurrency < 1 || c.Pipeline.StageConcurrency > 100 {
		missing = append(missing, "pipeline.stage_concurrency must be between 1 and 100")
	}
	if c.Pipeline.MaxQueriesPerClaim < 1 {
		missing = append(missing, "pipeline.max_queries_per_claim must be >= 1")
	}
	if c.Pipeline.MaxRetries < 0 {
		missing = append(missing, "pipeline.max_retries must be >= 0")
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FACTCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "factcheck.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("search.qps", 4)
	v.SetDefault("search.burst", 8)
	v.SetDefault("search.failure_threshold", 5)
	v.SetDefault("search.reset_timeout_secs", 30)
	v.SetDefault("pipeline.preceding_sentences", 5)
	v.SetDefault("pipeline.following_sentences", 5)
	v.SetDefault("pipeline.max_queries_per_claim", 3)
	v.SetDefault("pipeline.results_per_query", 5)
	v.SetDefault("pipeline.max_evidence", 20)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.max_concurrent_claims", 5)
	v.SetDefault("pipeline.stage_concurrency", 8)

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
