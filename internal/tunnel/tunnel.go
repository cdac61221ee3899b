// Package tunnel abstracts how a reply reaches the channel a command came
// from. The session core talks to a Tunnel only; whether the user typed a
// prefixed text command or invoked a structured interaction is invisible
// past this boundary.
package tunnel

import (
	"context"

	"github.com/verdane/duelbot/internal/domain"
)

// Tunnel is the uniform reply/identity capability over both transports.
type Tunnel interface {
	Author() domain.Member
	Channel() domain.Channel
	ReplyWith(ctx context.Context, content domain.Content) (*domain.MessageRef, error)
}

// Replier is the slice of the relay client the tunnels need.
type Replier interface {
	SendMessage(ctx context.Context, channelID string, content domain.Content) (*domain.MessageRef, error)
	ReplyToInteraction(ctx context.Context, interactionID string, content domain.Content, ephemeral bool) (*domain.MessageRef, error)
}
