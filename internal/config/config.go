// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thegreathir/jigarpich/internal/game"
)

var ErrNoWordsFile = errors.New("config: WORDS_FILE is not set and no path was given")

type Config struct {
	Port         string
	WordsFile    string
	LogLevel     string
	Env          string
	DatabaseURL  string
	SkipCooldown time.Duration
	Alerts       []time.Duration
}

// Load reads .env when present, then the environment. args are the command
// line arguments after the program name; the first one is the words file
// when WORDS_FILE is unset.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}

	c := Config{
		Port:        getenv("PORT", "8080"),
		WordsFile:   os.Getenv("WORDS_FILE"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("APP_ENV", "production"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	if c.WordsFile == "" && len(args) > 0 {
		c.WordsFile = args[0]
	}
	if c.WordsFile == "" {
		return Config{}, ErrNoWordsFile
	}

	var err error
	if c.SkipCooldown, err = time.ParseDuration(getenv("SKIP_COOLDOWN", "10s")); err != nil {
		return Config{}, fmt.Errorf("config: SKIP_COOLDOWN: %w", err)
	}
	for _, s := range strings.Split(getenv("ALERTS", "60s,30s,10s"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("config: ALERTS: %w", err)
		}
		c.Alerts = append(c.Alerts, d)
	}
	return c, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c Config) Addr() string { return ":" + c.Port }

// AlertSchedule turns the configured offsets into countdown broadcasts.
func (c Config) AlertSchedule() []game.Alert {
	out := make([]game.Alert, 0, len(c.Alerts))
	for _, d := range c.Alerts {
		out = append(out, game.Alert{Before: d, Text: "⏱️📢 " + alertLabel(d) + " ❗"})
	}
	return out
}

func alertLabel(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "1 min"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d mins", int(d/time.Minute))
	default:
		return fmt.Sprintf("%d secs", int(d/time.Second))
	}
}

// Logger builds the process logger: JSON in production, console otherwise.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Env == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
