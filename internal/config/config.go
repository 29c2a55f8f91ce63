package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"

	GeneratorLLM    = "llm"
	GeneratorDryRun = "dryrun"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Store     StoreConfig
	Generator GeneratorConfig
	Batch     BatchConfig
}

type StoreConfig struct {
	Driver      string `envconfig:"STORE_DRIVER" default:"memory"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`
	KeyPrefix   string `envconfig:"STORE_KEY_PREFIX" default:"bulkgen:batch"`
}

type GeneratorConfig struct {
	Kind         string        `envconfig:"GENERATOR" default:"dryrun"`
	AnthropicKey string        `envconfig:"ANTHROPIC_API_KEY"`
	Model        string        `envconfig:"LLM_MODEL" default:"claude-sonnet-4-20250514"`
	MaxTokens    int           `envconfig:"LLM_MAX_TOKENS" default:"8000"`
	Temperature  float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	JobTimeout   time.Duration `envconfig:"JOB_TIMEOUT" default:"5m"`
	DryRunDelay  time.Duration `envconfig:"DRYRUN_DELAY" default:"2s"`
}

type BatchConfig struct {
	StaleAfter time.Duration `envconfig:"STALE_AFTER" default:"2h"`
	MaxJobs    int           `envconfig:"MAX_JOBS_PER_BATCH" default:"500"`
	AutoResume bool          `envconfig:"AUTO_RESUME" default:"true"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for store driver %q", c.Store.Driver)
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for store driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Generator.Kind {
	case GeneratorDryRun:
	case GeneratorLLM:
		if c.Generator.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for generator %q", c.Generator.Kind)
		}
	default:
		return fmt.Errorf("unknown GENERATOR %q", c.Generator.Kind)
	}

	if c.Batch.MaxJobs <= 0 {
		return fmt.Errorf("MAX_JOBS_PER_BATCH must be positive")
	}
	if c.Batch.StaleAfter <= 0 {
		return fmt.Errorf("STALE_AFTER must be positive")
	}
	return nil
}
