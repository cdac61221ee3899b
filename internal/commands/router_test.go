package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdane/duelbot/internal/arena"
	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/events"
	"github.com/verdane/duelbot/internal/msgcat"
	"github.com/verdane/duelbot/internal/relay"
	"github.com/verdane/duelbot/internal/stats"
)

type sentMessage struct {
	channelID string
	content   domain.Content
	ephemeral bool
}

type fakeMessenger struct {
	mu     sync.Mutex
	sent   []sentMessage
	edits  []sentMessage
	nextID int
}

func (f *fakeMessenger) SendMessage(ctx context.Context, channelID string, content domain.Content) (*domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content})
	return &domain.MessageRef{ID: fmt.Sprintf("m%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeMessenger) ReplyToInteraction(ctx context.Context, interactionID string, content domain.Content, ephemeral bool) (*domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sentMessage{content: content, ephemeral: ephemeral})
	return &domain.MessageRef{ID: fmt.Sprintf("m%d", f.nextID)}, nil
}

func (f *fakeMessenger) EditMessage(ctx context.Context, ref *domain.MessageRef, content domain.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{channelID: ref.ChannelID, content: content})
	return nil
}

func (f *fakeMessenger) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeMessenger) editedMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.edits))
	copy(out, f.edits)
	return out
}

type allowAllDirectory struct{}

func (allowAllDirectory) ChannelHasMember(ctx context.Context, channelID, memberID string) (bool, error) {
	return true, nil
}

type fakeStats struct {
	byID map[string]stats.MemberStats
}

func (f *fakeStats) Stats(ctx context.Context, memberID string) (stats.MemberStats, error) {
	return f.byID[memberID], nil
}

var (
	alice = domain.Member{ID: "u1", Name: "Alice"}
	bob   = domain.Member{ID: "u2", Name: "Bob"}
)

func newTestRouter(t *testing.T, arenaCfg arena.Config) (*Router, *fakeMessenger, *arena.Manager, *events.Hub) {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	hub := events.NewHub()
	mgr := arena.NewManager(arenaCfg, hub, allowAllDirectory{})
	client := &fakeMessenger{}
	return NewRouter(Config{Prefix: "!"}, client, mgr, cat), client, mgr, hub
}

func messageEvent(author domain.Member, channelID, text string, mentions ...domain.Member) relay.Event {
	return relay.Event{
		Type: relay.EventMessage,
		Message: &relay.MessageEvent{
			ID:       "in1",
			Channel:  domain.Channel{ID: channelID},
			Author:   author,
			Text:     text,
			Mentions: mentions,
		},
	}
}

func reactionEvent(member domain.Member, messageID, emoji string) relay.Event {
	return relay.Event{
		Type: relay.EventReaction,
		Reaction: &relay.ReactionEvent{
			MessageID: messageID,
			ChannelID: "c1",
			Member:    member,
			Emoji:     emoji,
		},
	}
}

func TestIgnoresNonCommands(t *testing.T) {
	r, client, _, _ := newTestRouter(t, arena.Config{})
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "hello there"))
	r.HandleEvent(ctx, messageEvent(alice, "c1", "!unknowncmd"))
	r.HandleEvent(ctx, messageEvent(domain.Member{ID: "b1", Bot: true}, "c1", "!play"))

	assert.Empty(t, client.sentMessages())
}

func TestDuelWithoutMentionRepliesUsage(t *testing.T) {
	r, client, _, _ := newTestRouter(t, arena.Config{})
	r.HandleEvent(context.Background(), messageEvent(alice, "c1", "!duel"))

	sent := client.sentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].content.Text, "Mention the member")
}

func TestDuelAcceptedPromotesToGame(t *testing.T) {
	r, client, mgr, _ := newTestRouter(t, arena.Config{RequestExpire: 5 * time.Second})
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!duel @Bob", bob))

	sent := client.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"✅", "❌"}, sent[0].content.Reactions)
	requestMsgID := "m1"

	r.HandleEvent(ctx, reactionEvent(bob, requestMsgID, "✅"))

	require.Eventually(t, func() bool {
		return len(mgr.Boards()) == 1
	}, 2*time.Second, 10*time.Millisecond, "accepted request must become a game")

	require.Eventually(t, func() bool {
		return len(client.editedMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, client.editedMessages()[0].content.Text, "accepted")

	board := mgr.Boards()[0]
	ents := board.Entities()
	assert.Equal(t, alice.ID, ents[0].EntityID())
	assert.Equal(t, bob.ID, ents[1].EntityID())
}

func TestDuelDeclinedEditsMessage(t *testing.T) {
	r, client, mgr, _ := newTestRouter(t, arena.Config{RequestExpire: 5 * time.Second})
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!duel @Bob", bob))
	r.HandleEvent(ctx, reactionEvent(bob, "m1", "❌"))

	require.Eventually(t, func() bool {
		return len(client.editedMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, client.editedMessages()[0].content.Text, "declined")
	assert.Empty(t, mgr.Boards())

	_, pending := mgr.PendingRequest("m1")
	assert.False(t, pending, "resolved request must leave the pending index")
}

func TestDuelExpiresAndEditsMessage(t *testing.T) {
	r, client, mgr, _ := newTestRouter(t, arena.Config{RequestExpire: 30 * time.Millisecond})
	r.HandleEvent(context.Background(), messageEvent(alice, "c1", "!duel @Bob", bob))

	require.Eventually(t, func() bool {
		return len(client.editedMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, client.editedMessages()[0].content.Text, "expired")
	assert.Empty(t, mgr.Boards())
}

func TestReactionFromBystanderIgnored(t *testing.T) {
	r, client, mgr, _ := newTestRouter(t, arena.Config{RequestExpire: 5 * time.Second})
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!duel @Bob", bob))
	carol := domain.Member{ID: "u3", Name: "Carol"}
	r.HandleEvent(ctx, reactionEvent(carol, "m1", "✅"))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, mgr.Boards())
	assert.Empty(t, client.editedMessages())
}

func TestSelfInviteRepliesEphemeral(t *testing.T) {
	r, client, _, _ := newTestRouter(t, arena.Config{})
	r.HandleEvent(context.Background(), messageEvent(alice, "c1", "!duel @Alice", alice))

	sent := client.sentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].content.Text, "yourself")
	assert.True(t, sent[0].content.EphemeralOnError)
}

func TestPlayStartsAIGame(t *testing.T) {
	r, _, mgr, _ := newTestRouter(t, arena.Config{AIDifficulty: "easy"})
	r.HandleEvent(context.Background(), messageEvent(alice, "c1", "!play"))

	boards := mgr.Boards()
	require.Len(t, boards, 1)
	ai, ok := boards[0].Entities()[1].(arena.AIOpponent)
	require.True(t, ok)
	assert.Equal(t, "Easy", ai.Preset.Name)
}

func TestPlayWithExplicitDifficulty(t *testing.T) {
	r, _, mgr, _ := newTestRouter(t, arena.Config{AIDifficulty: "easy"})
	r.HandleEvent(context.Background(), messageEvent(alice, "c1", "!play hard"))

	boards := mgr.Boards()
	require.Len(t, boards, 1)
	ai, ok := boards[0].Entities()[1].(arena.AIOpponent)
	require.True(t, ok)
	assert.Equal(t, "Hard", ai.Preset.Name)
}

func TestInteractionDuelUsesTarget(t *testing.T) {
	r, client, mgr, _ := newTestRouter(t, arena.Config{RequestExpire: 5 * time.Second})
	target := bob
	r.HandleEvent(context.Background(), relay.Event{
		Type: relay.EventInteraction,
		Interaction: &relay.InteractionEvent{
			ID:      "i1",
			Channel: domain.Channel{ID: "c1"},
			Author:  alice,
			Command: "duel",
			Target:  &target,
		},
	})

	require.Len(t, client.sentMessages(), 1)
	req, ok := mgr.PendingRequest("m1")
	require.True(t, ok)
	assert.Equal(t, bob.ID, req.Invited().ID)
}

func TestStatsCommand(t *testing.T) {
	r, client, _, _ := newTestRouter(t, arena.Config{})
	r.AttachStats(&fakeStats{byID: map[string]stats.MemberStats{
		alice.ID: {Wins: 4, Losses: 2, Draws: 1},
	}})
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!stats"))
	sent := client.sentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].content.Text, "4W / 2L / 1T")

	r.HandleEvent(ctx, messageEvent(bob, "c1", "!stats"))
	sent = client.sentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].content.Text, "no recorded games")
}

func TestStatsWithoutBackendStaysSilent(t *testing.T) {
	r, client, _, _ := newTestRouter(t, arena.Config{})
	r.HandleEvent(context.Background(), messageEvent(alice, "c1", "!stats"))
	assert.Empty(t, client.sentMessages())
}

func TestResignEndsGame(t *testing.T) {
	r, client, mgr, hub := newTestRouter(t, arena.Config{})
	r.SubscribeAnnouncements(hub)
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!play"))
	require.Len(t, mgr.Boards(), 1)

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!resign"))
	assert.Empty(t, mgr.Boards())

	var win string
	for _, s := range client.sentMessages() {
		if strings.Contains(s.content.Text, "wins against") {
			win = s.content.Text
		}
	}
	require.NotEmpty(t, win, "resignation must announce the opponent's win")
	assert.Contains(t, win, "Alice")
}

func TestResignWithoutGame(t *testing.T) {
	r, client, _, _ := newTestRouter(t, arena.Config{})
	r.HandleEvent(context.Background(), messageEvent(alice, "c1", "!resign"))

	sent := client.sentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].content.Text, "no running game")
}

func TestAnnouncementsOnTie(t *testing.T) {
	r, client, mgr, hub := newTestRouter(t, arena.Config{})
	r.SubscribeAnnouncements(hub)
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!play"))
	require.Len(t, mgr.Boards(), 1)
	mgr.EndGame(mgr.Boards()[0], arena.Tie())

	var tie string
	for _, s := range client.sentMessages() {
		if strings.Contains(s.content.Text, "tied") {
			tie = s.content.Text
		}
	}
	assert.NotEmpty(t, tie)
}

func TestCooldownReplyNamesRemaining(t *testing.T) {
	r, client, _, _ := newTestRouter(t, arena.Config{
		RequestExpire:   5 * time.Second,
		RequestCooldown: time.Minute,
	})
	ctx := context.Background()

	r.HandleEvent(ctx, messageEvent(alice, "c1", "!duel @Bob", bob))
	r.HandleEvent(ctx, reactionEvent(bob, "m1", "❌"))
	require.Eventually(t, func() bool {
		return len(client.editedMessages()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	carol := domain.Member{ID: "u3", Name: "Carol"}
	r.HandleEvent(ctx, messageEvent(alice, "c1", "!duel @Carol", carol))

	sent := client.sentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].content.Text, "another duel request")
	assert.True(t, sent[1].content.EphemeralOnError)
}
