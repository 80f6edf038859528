package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath    = "data/votos.db"
	defaultMaxDigits = 2
	defaultEndDelay  = 1200 * time.Millisecond
)

type Config struct {
	DBPath    string
	MaxDigits int
	EndDelay  time.Duration
	Debug     bool
}

// Load reads .env (if present) and then the environment, falling back to
// defaults. The defaults mirror the reference terminal: votos.db next to
// the binary's data dir, two-digit candidate numbers, a short end-of-session
// delay before the next voter.
func Load() (Config, error) {
	godotenv.Load()

	cfg := Config{
		DBPath:    defaultDBPath,
		MaxDigits: defaultMaxDigits,
		EndDelay:  defaultEndDelay,
	}

	if v := os.Getenv("URNA_DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("URNA_MAX_DIGITS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid URNA_MAX_DIGITS %q: %w", v, err)
		}
		if n < 1 || n > 9 {
			return Config{}, fmt.Errorf("URNA_MAX_DIGITS must be between 1 and 9, got %d", n)
		}
		cfg.MaxDigits = n
	}

	if v := os.Getenv("URNA_END_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return Config{}, fmt.Errorf("invalid URNA_END_DELAY_MS %q", v)
		}
		cfg.EndDelay = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv("URNA_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid URNA_DEBUG %q", v)
		}
		cfg.Debug = b
	}

	return cfg, nil
}
