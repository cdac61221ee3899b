package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	RelayBaseURL string
	RelayWSURL   string

	BotPrefix string

	RedisURL    string
	DatabaseURL string

	// Duel request protocol.
	RequestExpireTime   time.Duration
	RequestCooldownTime time.Duration
	RequestReactions    []string // exactly two: accept, decline
	EmbedColor          int

	AIDifficulty string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		RequestExpireTime:   60 * time.Second,
		RequestCooldownTime: 0,
		RequestReactions:    []string{"✅", "❌"},
		EmbedColor:          0x2ECC71,
		AIDifficulty:        "",
	}

	cfg.RelayBaseURL = strings.TrimSpace(os.Getenv("RELAY_BASE_URL"))
	cfg.RelayWSURL = strings.TrimSpace(os.Getenv("RELAY_WS_URL"))
	cfg.BotPrefix = strings.TrimSpace(os.Getenv("BOT_PREFIX"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("REQUEST_EXPIRE_TIME")); v != "" {
		d, err := parseDurationOrSeconds(v)
		if err != nil {
			return nil, fmt.Errorf("REQUEST_EXPIRE_TIME: %w", err)
		}
		if d <= 0 {
			return nil, errors.New("REQUEST_EXPIRE_TIME must be positive")
		}
		cfg.RequestExpireTime = d
	}
	if v := strings.TrimSpace(os.Getenv("REQUEST_COOLDOWN_TIME")); v != "" {
		d, err := parseDurationOrSeconds(v)
		if err != nil {
			return nil, fmt.Errorf("REQUEST_COOLDOWN_TIME: %w", err)
		}
		if d < 0 {
			return nil, errors.New("REQUEST_COOLDOWN_TIME must not be negative")
		}
		cfg.RequestCooldownTime = d
	}
	if v := strings.TrimSpace(os.Getenv("REQUEST_REACTIONS")); v != "" {
		parts := splitList(v)
		if len(parts) != 2 {
			return nil, errors.New("REQUEST_REACTIONS must list exactly two reactions: accept,decline")
		}
		cfg.RequestReactions = parts
	}
	if v := strings.TrimSpace(os.Getenv("EMBED_COLOR")); v != "" {
		c, err := parseColor(v)
		if err != nil {
			return nil, fmt.Errorf("EMBED_COLOR: %w", err)
		}
		cfg.EmbedColor = c
	}
	cfg.AIDifficulty = strings.TrimSpace(os.Getenv("AI_DIFFICULTY"))

	if cfg.RelayBaseURL == "" {
		return nil, errors.New("RELAY_BASE_URL is required")
	}
	if cfg.RelayWSURL == "" {
		return nil, errors.New("RELAY_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}

	return cfg, nil
}

// parseDurationOrSeconds accepts either a Go duration ("90s", "2m") or a bare
// number of seconds, which older deployments still use.
func parseDurationOrSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// parseColor reads "#RRGGBB", "0xRRGGBB" or a bare hex/decimal value.
func parseColor(v string) (int, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(v, "#"), "0x")
	if n, err := strconv.ParseInt(s, 16, 32); err == nil {
		return int(n), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid color value %q", v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
