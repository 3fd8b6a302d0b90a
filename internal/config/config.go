// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when WELLNESSWAVE_ENV_FILE is unset.
const DefaultEnvFile = "db.env"

// Config holds the settings for the HTTP service.
type Config struct {
	// Addr is the listen address. Default: ":5000".
	Addr string

	// DB is a SQLite path or MongoDB URI. Empty means the store's
	// default location.
	DB string

	AnxietyModel    string // Default: "models/anxiety.json"
	DepressionModel string // Default: "models/depression.json"

	// CORSOrigins lists allowed origins. "*" allows any.
	CORSOrigins []string

	LogLevel  string // "debug", "info", "warn", "error"
	LogFormat string // "json", "console"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":5000",
		AnxietyModel:    "models/anxiety.json",
		DepressionModel: "models/depression.json",
		CORSOrigins:     []string{"*"},
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if a := os.Getenv("WELLNESSWAVE_ADDR"); a != "" {
		cfg.Addr = a
	}

	if d := os.Getenv("WELLNESSWAVE_DB"); d != "" {
		cfg.DB = d
	} else if u := os.Getenv("MONGO_URI"); u != "" {
		cfg.DB = u
	}

	if m := os.Getenv("WELLNESSWAVE_ANXIETY_MODEL"); m != "" {
		cfg.AnxietyModel = m
	}
	if m := os.Getenv("WELLNESSWAVE_DEPRESSION_MODEL"); m != "" {
		cfg.DepressionModel = m
	}

	if o := os.Getenv("WELLNESSWAVE_CORS_ORIGINS"); o != "" {
		cfg.CORSOrigins = splitList(o)
	}

	if l := os.Getenv("WELLNESSWAVE_LOG_LEVEL"); l != "" {
		cfg.LogLevel = l
	}
	if f := os.Getenv("WELLNESSWAVE_LOG_FORMAT"); f != "" {
		cfg.LogFormat = f
	}

	return cfg
}

// LoadEnvFile loads WELLNESSWAVE_ENV_FILE (default db.env). A missing
// default file is not an error; a missing explicit file is.
func LoadEnvFile() error {
	path, explicit := os.LookupEnv("WELLNESSWAVE_ENV_FILE")
	if !explicit || path == "" {
		path = DefaultEnvFile
		explicit = false
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
