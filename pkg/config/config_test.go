package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int           `env:"PORT" envDefault:"8080"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"info"`
	TTL      time.Duration `env:"TTL" envDefault:"720h"`
	Brokers  []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 720*time.Hour, cfg.TTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoadWithPrefix_ReadsPrefixedVars(t *testing.T) {
	t.Setenv("CFGTEST_PORT", "9090")
	t.Setenv("CFGTEST_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PORT", "1")

	var cfg testConfig
	require.NoError(t, LoadWithPrefix(&cfg, "CFGTEST_"))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CFGBAD_PORT", "not-a-number")

	var cfg testConfig
	err := LoadWithPrefix(&cfg, "CFGBAD_")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_NonPointer(t *testing.T) {
	err := Load(testConfig{})
	assert.Error(t, err)
}
