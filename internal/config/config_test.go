package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.SignedLinkTTL)
	assert.Equal(t, float64(10), cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SIGNED_LINK_TTL_HOURS", "24")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SignedLinkTTL)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("SIGNED_LINK_TTL_HOURS", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
