package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "supersecret")
	t.Setenv("APP_PORT", "")
	t.Setenv("SESSION_REWARD", "")
	t.Setenv("ENGINE_TIMEZONE", "")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	rules := cfg.Rules()
	assert.Equal(t, 24*time.Hour, rules.Session.Duration)
	assert.Equal(t, 2.0, rules.Session.Reward)
	assert.Equal(t, 7, rules.Streak.BonusDay)
	assert.Equal(t, 5.0, rules.Streak.BonusAmount)
	assert.Equal(t, 5*time.Minute, rules.Ad.Cooldown)
	assert.Equal(t, 0.5, rules.Ad.Reward)
	assert.Equal(t, 50, rules.Referral.Cap)
	assert.Equal(t, 1.0, rules.Referral.ReferrerBonus)
	assert.Equal(t, 2.0, rules.Referral.RefereeBonus)
	assert.Equal(t, time.UTC, rules.Streak.Location)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "supersecret")
	t.Setenv("SESSION_DURATION_SECONDS", "60")
	t.Setenv("AD_REWARD", "1.25")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("ENGINE_TIMEZONE", "Africa/Lagos")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.LogJSON)
	rules := cfg.Rules()
	assert.Equal(t, time.Minute, rules.Session.Duration)
	assert.Equal(t, 1.25, rules.Ad.Reward)
	assert.Equal(t, "Africa/Lagos", rules.Streak.Location.String())
}

func TestParse_AdminUserIDs(t *testing.T) {
	t.Setenv("JWT_SECRET", "supersecret")
	t.Setenv("ADMIN_USER_IDS", " 101, 202,oops,,-3")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 202}, cfg.AdminUserIDs)
	assert.True(t, cfg.IsAdmin(202))
	assert.False(t, cfg.IsAdmin(303))
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {"JWT_SECRET": ""},
		"bad timezone":   {"JWT_SECRET": "supersecret", "ENGINE_TIMEZONE": "Mars/Olympus"},
		"bad log level":  {"JWT_SECRET": "supersecret", "LOG_LEVEL": "chatty"},
		"general < rate": {"JWT_SECRET": "supersecret", "MAX_GENERAL_PURCHASE_USD": "5"},
		"zero cap":       {"JWT_SECRET": "supersecret", "REFERRAL_CAP": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
