package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("STATS_WEEK_START", "")
	t.Setenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.False(t, cfg.OTPInvalidatePrevious)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}

func TestLoadConfigRejectsUnknownWeekStart(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STATS_WEEK_START", "wednesday")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigSundayWeek(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STATS_WEEK_START", "Sunday")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.WeekStartsOnSunday())
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_DURATION", "-5s")
	t.Setenv("SOME_BOOL", "maybe")

	assert.Equal(t, 3, getEnvInt("SOME_INT", 3))
	assert.Equal(t, time.Second, getEnvDuration("SOME_DURATION", time.Second))
	assert.True(t, getEnvBool("SOME_BOOL", true))
	assert.Equal(t, "staging", normalizeEnv(" Stage "))
}
