package tunnel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/relay"
)

type fakeReplier struct {
	sentChannel   string
	sentContent   domain.Content
	interactionID string
	ephemeral     bool
}

func (f *fakeReplier) SendMessage(ctx context.Context, channelID string, content domain.Content) (*domain.MessageRef, error) {
	f.sentChannel = channelID
	f.sentContent = content
	return &domain.MessageRef{ID: "m1", ChannelID: channelID}, nil
}

func (f *fakeReplier) ReplyToInteraction(ctx context.Context, interactionID string, content domain.Content, ephemeral bool) (*domain.MessageRef, error) {
	f.interactionID = interactionID
	f.sentContent = content
	f.ephemeral = ephemeral
	return &domain.MessageRef{ID: "m2", ChannelID: "c1"}, nil
}

func TestMessageTunnelReplies(t *testing.T) {
	f := &fakeReplier{}
	ev := &relay.MessageEvent{
		ID:      "msg-1",
		Channel: domain.Channel{ID: "c1"},
		Author:  domain.Member{ID: "u1", Name: "Alice"},
	}
	tn := NewMessageTunnel(f, ev)

	assert.Equal(t, "u1", tn.Author().ID)
	assert.Equal(t, "c1", tn.Channel().ID)

	ref, err := tn.ReplyWith(context.Background(), domain.Content{Text: "hi", EphemeralOnError: true})
	require.NoError(t, err)
	assert.Equal(t, "m1", ref.ID)
	assert.Equal(t, "c1", f.sentChannel)
}

func TestInteractionTunnelReplies(t *testing.T) {
	f := &fakeReplier{}
	ev := &relay.InteractionEvent{
		ID:      "ix-1",
		Channel: domain.Channel{ID: "c2"},
		Author:  domain.Member{ID: "u2", Name: "Bob"},
	}
	tn := NewInteractionTunnel(f, ev)

	assert.Equal(t, "u2", tn.Author().ID)
	assert.Equal(t, "c2", tn.Channel().ID)

	_, err := tn.ReplyWith(context.Background(), domain.Content{Text: "err", EphemeralOnError: true})
	require.NoError(t, err)
	assert.Equal(t, "ix-1", f.interactionID)
	assert.True(t, f.ephemeral, "interaction transport honors ephemeral-on-error")
}

func TestNilEventTunnelsAreEmpty(t *testing.T) {
	assert.Empty(t, NewMessageTunnel(nil, nil).Author().ID)
	assert.Empty(t, NewInteractionTunnel(nil, nil).Channel().ID)
}
