package domain

// Member identifies one chat participant as the relay reports it.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot,omitempty"`
}

// Channel is the chat room a command originated from.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// MessageRef points at a message the bot has sent and may later edit.
type MessageRef struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// Content is transport-neutral outbound message content. Rendering to the
// platform's native format happens inside the relay.
type Content struct {
	Text      string   `json:"text"`
	Color     int      `json:"color,omitempty"`
	Reactions []string `json:"reactions,omitempty"`

	// EphemeralOnError asks the transport to deliver the reply privately
	// when it carries an error notice. Only the interaction transport can
	// honor it; the message transport ignores the flag.
	EphemeralOnError bool `json:"ephemeral_on_error,omitempty"`
}
