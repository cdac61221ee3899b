package tunnel

import (
	"context"

	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/relay"
)

// InteractionTunnel is the structured-command transport. The first reply
// acknowledges the interaction; the relay resolves it to a real channel
// message whose reference is returned for later edits.
type InteractionTunnel struct {
	client Replier
	ev     *relay.InteractionEvent
}

func NewInteractionTunnel(client Replier, ev *relay.InteractionEvent) *InteractionTunnel {
	return &InteractionTunnel{client: client, ev: ev}
}

func (t *InteractionTunnel) Author() domain.Member {
	if t.ev == nil {
		return domain.Member{}
	}
	return t.ev.Author
}

func (t *InteractionTunnel) Channel() domain.Channel {
	if t.ev == nil {
		return domain.Channel{}
	}
	return t.ev.Channel
}

func (t *InteractionTunnel) ReplyWith(ctx context.Context, content domain.Content) (*domain.MessageRef, error) {
	return t.client.ReplyToInteraction(ctx, t.ev.ID, content, content.EphemeralOnError)
}
