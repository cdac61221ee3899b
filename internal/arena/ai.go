package arena

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DifficultyPreset tunes the external move engine for one AI opponent.
// The arena never interprets these values; they travel with the entity.
type DifficultyPreset struct {
	Name          string
	ThinkTime     time.Duration
	Lookahead     int
	MistakeChance float64
}

const DefaultDifficulty = "normal"

var DefaultPresets = map[string]DifficultyPreset{
	"easy": {
		Name:          "Easy",
		ThinkTime:     300 * time.Millisecond,
		Lookahead:     2,
		MistakeChance: 0.35,
	},
	"normal": {
		Name:          "Normal",
		ThinkTime:     800 * time.Millisecond,
		Lookahead:     4,
		MistakeChance: 0.12,
	},
	"hard": {
		Name:          "Hard",
		ThinkTime:     1500 * time.Millisecond,
		Lookahead:     7,
		MistakeChance: 0.0,
	},
}

// PresetFor resolves a difficulty name to its preset, accepting a few
// aliases and falling back to the default for unset or unknown names.
func PresetFor(name string) DifficultyPreset {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "beginner":
		key = "easy"
	case "medium":
		key = "normal"
	case "expert", "master":
		key = "hard"
	}
	if p, ok := DefaultPresets[key]; ok {
		return p
	}
	return DefaultPresets[DefaultDifficulty]
}

// NewAIOpponent constructs a fresh AI entity. Each opponent gets its own
// identity so two AI games in one channel never collide in the registry.
func NewAIOpponent(difficulty string) AIOpponent {
	return AIOpponent{
		ID:     "ai-" + uuid.New().String(),
		Preset: PresetFor(difficulty),
	}
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("preset name required")
	case p.ThinkTime < 0:
		return fmt.Errorf("think time must be >= 0: %v", p.ThinkTime)
	case p.Lookahead <= 0:
		return fmt.Errorf("lookahead must be > 0: %d", p.Lookahead)
	case p.MistakeChance < 0 || p.MistakeChance > 1:
		return fmt.Errorf("mistake chance must be in [0,1]: %f", p.MistakeChance)
	}
	return nil
}
