package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresDatabaseSettings(t *testing.T) {
	cfg := &Config{Port: 8080}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestValidateRequiresSigningSecretWhenExportsEnabled(t *testing.T) {
	cfg := &Config{
		Port:     8080,
		Database: DatabaseConfig{Host: "localhost", User: "postgres", Name: "school_admin"},
		Exports:  ExportsConfig{Enabled: true},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPORTS_SIGNED_URL_SECRET")

	cfg.Exports.SignedURLSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeHorizon(t *testing.T) {
	cfg := &Config{
		Port:      8080,
		Database:  DatabaseConfig{Host: "localhost", User: "postgres", Name: "school_admin"},
		Scheduler: SchedulerConfig{DefaultDayHorizon: -1},
	}
	require.Error(t, cfg.Validate())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,"))
}
