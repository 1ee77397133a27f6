package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/thegreathir/jigarpich/internal/game"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "WORDS_FILE", "LOG_LEVEL", "APP_ENV", "DATABASE_URL", "SKIP_COOLDOWN", "ALERTS"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load([]string{"words.csv"})
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr())
	assert.Equal(t, "words.csv", c.WordsFile)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "production", c.Env)
	assert.Empty(t, c.DatabaseURL)
	assert.Equal(t, 10*time.Second, c.SkipCooldown)
	assert.Equal(t, game.DefaultAlerts, c.AlertSchedule())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("WORDS_FILE", "/data/words.csv")
	t.Setenv("SKIP_COOLDOWN", "5s")
	t.Setenv("ALERTS", "2m, 15s")
	t.Setenv("DATABASE_URL", "postgres://localhost/jigarpich")

	c, err := Load([]string{"ignored.csv"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Addr())
	assert.Equal(t, "/data/words.csv", c.WordsFile)
	assert.Equal(t, 5*time.Second, c.SkipCooldown)
	assert.Equal(t, []game.Alert{
		{Before: 2 * time.Minute, Text: "⏱️📢 2 mins ❗"},
		{Before: 15 * time.Second, Text: "⏱️📢 15 secs ❗"},
	}, c.AlertSchedule())
	assert.Equal(t, "postgres://localhost/jigarpich", c.DatabaseURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"no words file", nil, nil},
		{"bad cooldown", map[string]string{"SKIP_COOLDOWN": "soon"}, []string{"w.csv"}},
		{"bad alerts", map[string]string{"ALERTS": "60s,later"}, []string{"w.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}

	clearEnv(t)
	_, err := Load(nil)
	assert.ErrorIs(t, err, ErrNoWordsFile)
}

func TestLogger(t *testing.T) {
	log, err := Config{LogLevel: "debug", Env: "development"}.Logger()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = Config{LogLevel: "loud"}.Logger()
	assert.Error(t, err)
}
