package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DRAFT_STORE", "")
	t.Setenv("PORT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DraftBackendMemory, cfg.Drafts.Backend)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.UsesRedis())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DRAFT_STORE", "Redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DRAFT_TTL", "90m")
	t.Setenv("EVENT_TIME_ZONE", "Asia/Jerusalem")

	cfg := Load()

	assert.Equal(t, DraftBackendRedis, cfg.Drafts.Backend)
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Minute, cfg.Drafts.TTL)
	assert.Equal(t, "Asia/Jerusalem", cfg.EventLocation().String())
}

func TestEventLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Drafts: DraftsConfig{TimeZone: "Nowhere/Special"}}
	assert.Equal(t, time.UTC, cfg.EventLocation())
}

func TestLoadClampsJanitorIntervals(t *testing.T) {
	t.Setenv("DRAFT_PURGE_INTERVAL", "0s")
	t.Setenv("DRAFT_SESSION_IDLE", "-5m")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.Drafts.PurgeInterval)
	assert.Equal(t, 30*time.Minute, cfg.Drafts.SessionIdle)

	t.Setenv("DRAFT_PURGE_INTERVAL", "2m")
	assert.Equal(t, 2*time.Minute, Load().Drafts.PurgeInterval)
}
