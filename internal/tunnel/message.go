package tunnel

import (
	"context"

	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/relay"
)

// MessageTunnel is the text-command transport: replies are ordinary channel
// messages. Ephemeral delivery is not available here and the flag on
// Content is ignored.
type MessageTunnel struct {
	client Replier
	ev     *relay.MessageEvent
}

func NewMessageTunnel(client Replier, ev *relay.MessageEvent) *MessageTunnel {
	return &MessageTunnel{client: client, ev: ev}
}

func (t *MessageTunnel) Author() domain.Member {
	if t.ev == nil {
		return domain.Member{}
	}
	return t.ev.Author
}

func (t *MessageTunnel) Channel() domain.Channel {
	if t.ev == nil {
		return domain.Channel{}
	}
	return t.ev.Channel
}

func (t *MessageTunnel) ReplyWith(ctx context.Context, content domain.Content) (*domain.MessageRef, error) {
	return t.client.SendMessage(ctx, t.Channel().ID, content)
}
