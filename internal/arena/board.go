package arena

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/tunnel"
)

// GameBoard is one active session: exactly two entities bound to the
// channel they play in. The first entity is always the human initiator;
// the second is a human or AI opponent. Board mechanics (moves, win
// detection) are an external collaborator; the arena only owns membership
// and outcome routing.
type GameBoard struct {
	id        string
	tn        tunnel.Tunnel
	channel   domain.Channel
	entities  [2]Entity
	color     int
	createdAt time.Time

	mu  sync.Mutex
	msg *domain.MessageRef
}

func newGameBoard(t tunnel.Tunnel, first, second Entity, cfg Config) *GameBoard {
	return &GameBoard{
		id:        uuid.New().String(),
		tn:        t,
		channel:   t.Channel(),
		entities:  [2]Entity{first, second},
		color:     cfg.EmbedColor,
		createdAt: time.Now(),
	}
}

func (b *GameBoard) ID() string              { return b.id }
func (b *GameBoard) Tunnel() tunnel.Tunnel   { return b.tn }
func (b *GameBoard) Channel() domain.Channel { return b.channel }
func (b *GameBoard) CreatedAt() time.Time    { return b.createdAt }

// Entities exposes the two participants read-only.
func (b *GameBoard) Entities() [2]Entity { return b.entities }

// OpponentOf finds the other participant by identity difference.
func (b *GameBoard) OpponentOf(e Entity) Entity {
	if e == nil {
		return nil
	}
	if b.entities[0] != nil && b.entities[0].EntityID() == e.EntityID() {
		return b.entities[1]
	}
	return b.entities[0]
}

// Has reports whether the entity with the given ID participates here.
func (b *GameBoard) Has(entityID string) bool {
	for _, e := range b.entities {
		if e != nil && e.EntityID() == entityID {
			return true
		}
	}
	return false
}

// Content renders the session announcement message.
func (b *GameBoard) Content() domain.Content {
	return domain.Content{
		Text:  fmt.Sprintf("🎮 %s vs %s — the game has started!", b.entities[0].DisplayName(), b.entities[1].DisplayName()),
		Color: b.color,
	}
}

// Attach binds the session's rendering to a concrete message; move input
// scoped to that message is routed by the command layer.
func (b *GameBoard) Attach(msg *domain.MessageRef) {
	b.mu.Lock()
	b.msg = msg
	b.mu.Unlock()
}

func (b *GameBoard) Message() *domain.MessageRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msg
}
