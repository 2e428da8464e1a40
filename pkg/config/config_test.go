package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_TASK_HOUR", "")
	t.Setenv("CALENDAR_SYNC_CONCURRENCY", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 9, cfg.DefaultTaskHour)
	assert.Equal(t, 1, cfg.CalendarSyncConcurrency)
	assert.Equal(t, 1, cfg.FreeTierActiveGoals)
	assert.Equal(t, 15*time.Second, cfg.GenerationPollInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_TASK_HOUR", "7")
	t.Setenv("GENERATION_POLL_INTERVAL", "2s")
	t.Setenv("GENERATION_WORKERS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 7, cfg.DefaultTaskHour)
	assert.Equal(t, 2*time.Second, cfg.GenerationPollInterval)
	assert.Equal(t, 2, cfg.GenerationWorkers, "invalid ints keep the default")
}
