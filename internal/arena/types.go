package arena

import (
	"github.com/verdane/duelbot/internal/domain"
)

// Entity is one session participant, human or AI-backed.
type Entity interface {
	EntityID() string
	DisplayName() string
}

// Player wraps a chat member as a session participant.
type Player struct {
	Member domain.Member
}

func (p Player) EntityID() string    { return p.Member.ID }
func (p Player) DisplayName() string { return p.Member.Name }

// AIOpponent is a machine participant configured by a difficulty preset.
// The move-choosing engine lives elsewhere; the arena only carries the
// parameters it will play with.
type AIOpponent struct {
	ID     string
	Preset DifficultyPreset
}

func (a AIOpponent) EntityID() string    { return a.ID }
func (a AIOpponent) DisplayName() string { return "Bot (" + a.Preset.Name + ")" }

type outcomeKind int

const (
	outcomeUnresolved outcomeKind = iota
	outcomeDecisive
	outcomeTie
)

// Outcome is the explicit tagged result passed to session teardown:
// Decisive carries a winner, Tie has none, Unresolved means the session
// ended without a competitive result and no notification is owed.
type Outcome struct {
	kind   outcomeKind
	winner Entity
}

func Decisive(winner Entity) Outcome { return Outcome{kind: outcomeDecisive, winner: winner} }
func Tie() Outcome                   { return Outcome{kind: outcomeTie} }
func Unresolved() Outcome            { return Outcome{} }

// Winner returns the winning entity for decisive outcomes.
func (o Outcome) Winner() (Entity, bool) {
	if o.kind != outcomeDecisive {
		return nil, false
	}
	return o.winner, true
}

func (o Outcome) IsTie() bool        { return o.kind == outcomeTie }
func (o Outcome) IsUnresolved() bool { return o.kind == outcomeUnresolved }

// Event payloads carried on the notification hub.

type GameStartingPayload struct {
	Channel  domain.Channel
	Entities [2]Entity
}

type GameWinPayload struct {
	Channel domain.Channel
	Winner  Entity
	Loser   Entity
}

type GameTiePayload struct {
	Channel  domain.Channel
	Entities [2]Entity
}
