package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Limits.MaxCategoriesPerUser)
	assert.Equal(t, 20, cfg.Limits.MaxSharesPerEvent)
	assert.Equal(t, 30, cfg.Reminder.PollIntervalSec)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_CATEGORIES_PER_USER", "5")
	t.Setenv("MAX_SHARES_PER_EVENT", "3")
	t.Setenv("DATABASE_URL", "postgres://db:5432/cal?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Limits.MaxCategoriesPerUser)
	assert.Equal(t, 3, cfg.Limits.MaxSharesPerEvent)
	assert.Equal(t, "postgres://db:5432/cal?sslmode=disable", cfg.Database.DSN())
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("MAX_SHARES_PER_EVENT", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSNFromComponents(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.DSN())
}
