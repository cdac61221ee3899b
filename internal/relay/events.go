package relay

import "github.com/verdane/duelbot/internal/domain"

// EventType discriminates inbound gateway frames.
type EventType string

const (
	EventMessage     EventType = "message"
	EventInteraction EventType = "interaction"
	EventReaction    EventType = "reaction"
)

// Event is one frame read from the gateway socket. Exactly one of the
// payload pointers is set, matching Type.
type Event struct {
	Type        EventType         `json:"type"`
	Message     *MessageEvent     `json:"message,omitempty"`
	Interaction *InteractionEvent `json:"interaction,omitempty"`
	Reaction    *ReactionEvent    `json:"reaction,omitempty"`
}

// MessageEvent is a plain chat message, the text-command transport.
type MessageEvent struct {
	ID       string          `json:"id"`
	Channel  domain.Channel  `json:"channel"`
	Author   domain.Member   `json:"author"`
	Text     string          `json:"text"`
	Mentions []domain.Member `json:"mentions,omitempty"`
}

// InteractionEvent is a structured command invocation, the interaction
// transport. Options carries named arguments already parsed by the relay.
type InteractionEvent struct {
	ID      string            `json:"id"`
	Channel domain.Channel    `json:"channel"`
	Author  domain.Member     `json:"author"`
	Command string            `json:"command"`
	Options map[string]string `json:"options,omitempty"`
	Target  *domain.Member    `json:"target,omitempty"`
}

// ReactionEvent reports a reaction added to a message the bot sent.
type ReactionEvent struct {
	MessageID string        `json:"message_id"`
	ChannelID string        `json:"channel_id"`
	Member    domain.Member `json:"member"`
	Emoji     string        `json:"emoji"`
}
