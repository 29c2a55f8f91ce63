package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-batch-service/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "bulkgen:batch", cfg.Store.KeyPrefix)
	assert.Equal(t, config.GeneratorDryRun, cfg.Generator.Kind)
	assert.Equal(t, 2*time.Hour, cfg.Batch.StaleAfter)
	assert.Equal(t, 500, cfg.Batch.MaxJobs)
	assert.True(t, cfg.Batch.AutoResume)
	assert.Equal(t, 5*time.Minute, cfg.Generator.JobTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STALE_AFTER", "30m")
	t.Setenv("AUTO_RESUME", "false")
	t.Setenv("LLM_TEMPERATURE", "0.2")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.Batch.StaleAfter)
	assert.False(t, cfg.Batch.AutoResume)
	assert.InDelta(t, 0.2, cfg.Generator.Temperature, 1e-9)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without dsn", env: map[string]string{"STORE_DRIVER": "postgres"}},
		{name: "redis without addr", env: map[string]string{"STORE_DRIVER": "redis"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "etcd"}},
		{name: "llm without key", env: map[string]string{"GENERATOR": "llm"}},
		{name: "unknown generator", env: map[string]string{"GENERATOR": "gpt"}},
		{name: "zero max jobs", env: map[string]string{"MAX_JOBS_PER_BATCH": "0"}},
		{name: "bad duration", env: map[string]string{"STALE_AFTER": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
