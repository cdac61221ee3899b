package arena

import (
	"context"
	"fmt"

	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/tunnel"
)

// Directory answers channel-visibility questions. Implemented by the relay
// client; faked in tests.
type Directory interface {
	ChannelHasMember(ctx context.Context, channelID, memberID string) (bool, error)
}

// Validator holds the pure eligibility checks evaluated before any
// registry mutation. It never mutates state itself.
type Validator struct {
	dir Directory
}

func NewValidator(dir Directory) *Validator {
	return &Validator{dir: dir}
}

// InteractionValid reports whether the tunnel context is still usable.
// A false result is rejected silently: no session, no error to the user.
func (v *Validator) InteractionValid(t tunnel.Tunnel) bool {
	if t == nil {
		return false
	}
	return t.Author().ID != "" && t.Channel().ID != ""
}

// NewGamePossible enforces the one-session-per-member-per-channel
// invariant over a registry snapshot. memberIDs lists the proposed
// participants; empty IDs are skipped.
func (v *Validator) NewGamePossible(boards []*GameBoard, channelID string, memberIDs ...string) bool {
	for _, b := range boards {
		if b == nil || b.Channel().ID != channelID {
			continue
		}
		for _, e := range b.Entities() {
			for _, id := range memberIDs {
				if id != "" && e.EntityID() == id {
					return false
				}
			}
		}
	}
	return true
}

// ValidateInvite enforces the invitation invariants: not the inviter, not
// a bot account, and visible in the originating channel.
func (v *Validator) ValidateInvite(ctx context.Context, t tunnel.Tunnel, invited domain.Member) error {
	if invited.ID == t.Author().ID {
		return ErrSelfInvite
	}
	if invited.Bot {
		return ErrBotInvite
	}
	if v.dir != nil {
		ok, err := v.dir.ChannelHasMember(ctx, t.Channel().ID, invited.ID)
		if err != nil {
			return fmt.Errorf("member lookup: %w", err)
		}
		if !ok {
			return ErrInvitedNotInChannel
		}
	}
	return nil
}
