package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "tick.output", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.EndingRule)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TICK_STORE_BACKEND", "Redis")
	t.Setenv("TICK_REDIS_SESSION_TTL", "1h")
	t.Setenv("TICK_REDIS_LOCK", "true")
	t.Setenv("TICK_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("TICK_ENDING_RULE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Redis.Lock)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.EndingRule)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("Store", func(t *testing.T) {
		t.Setenv("TICK_STORE_BACKEND", "postgres")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "postgres")
	})
	t.Run("Duration", func(t *testing.T) {
		t.Setenv("TICK_HTTP_SHUTDOWN_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("Log Format", func(t *testing.T) {
		t.Setenv("TICK_LOG_FORMAT", "xml")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TICK_STORY=game\n"), 0o644))
	t.Chdir(dir)
	// godotenv never overrides a variable already set; register cleanup for the one it sets.
	t.Setenv("TICK_STORY", "")
	require.NoError(t, os.Unsetenv("TICK_STORY"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "game", cfg.Story)
}
