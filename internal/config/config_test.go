package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RELAY_BASE_URL", "http://localhost:3000")
	t.Setenv("RELAY_WS_URL", "ws://localhost:3000/ws")
	t.Setenv("BOT_PREFIX", "!")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestExpireTime != 60*time.Second {
		t.Fatalf("default expire: %v", cfg.RequestExpireTime)
	}
	if cfg.RequestCooldownTime != 0 {
		t.Fatalf("default cooldown: %v", cfg.RequestCooldownTime)
	}
	if len(cfg.RequestReactions) != 2 {
		t.Fatalf("default reactions: %v", cfg.RequestReactions)
	}
	if cfg.EmbedColor != 0x2ECC71 {
		t.Fatalf("default color: %#x", cfg.EmbedColor)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("RELAY_BASE_URL", "")
	t.Setenv("RELAY_WS_URL", "")
	t.Setenv("BOT_PREFIX", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing RELAY_BASE_URL")
	}
}

func TestLoadDurations(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30", 30 * time.Second},
		{"90s", 90 * time.Second},
		{"2m", 2 * time.Minute},
	}
	for _, tc := range cases {
		setRequired(t)
		t.Setenv("REQUEST_COOLDOWN_TIME", tc.in)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load(%q): %v", tc.in, err)
		}
		if cfg.RequestCooldownTime != tc.want {
			t.Fatalf("cooldown for %q: got %v want %v", tc.in, cfg.RequestCooldownTime, tc.want)
		}
	}
}

func TestLoadColor(t *testing.T) {
	for _, in := range []string{"#2ecc71", "0x2ECC71", "2ecc71"} {
		setRequired(t)
		t.Setenv("EMBED_COLOR", in)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load(%q): %v", in, err)
		}
		if cfg.EmbedColor != 0x2ECC71 {
			t.Fatalf("color for %q: %#x", in, cfg.EmbedColor)
		}
	}
}

func TestLoadRejectsBadReactions(t *testing.T) {
	setRequired(t)
	t.Setenv("REQUEST_REACTIONS", "✅")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for single reaction")
	}
}
