// Package commands parses inbound gateway events into arena operations and
// renders the arena's answers back through the originating transport.
package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verdane/duelbot/internal/arena"
	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/events"
	"github.com/verdane/duelbot/internal/msgcat"
	"github.com/verdane/duelbot/internal/obslog"
	"github.com/verdane/duelbot/internal/relay"
	"github.com/verdane/duelbot/internal/stats"
	"github.com/verdane/duelbot/internal/tunnel"
)

// Messenger is the slice of the relay client the router needs: the tunnel
// reply surface plus message editing for request lifecycle updates.
type Messenger interface {
	tunnel.Replier
	EditMessage(ctx context.Context, ref *domain.MessageRef, content domain.Content) error
}

// StatsSource answers the stats command. Optional.
type StatsSource interface {
	Stats(ctx context.Context, memberID string) (stats.MemberStats, error)
}

type Config struct {
	Prefix          string
	EmbedColor      int
	AcceptReaction  string
	DeclineReaction string
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = "!"
	}
	if c.AcceptReaction == "" {
		c.AcceptReaction = "✅"
	}
	if c.DeclineReaction == "" {
		c.DeclineReaction = "❌"
	}
	return c
}

// Router routes gateway events to the arena. One instance serves both
// transports; each inbound event is handled on the caller's goroutine
// except for request awaiting, which runs in its own.
type Router struct {
	cfg    Config
	client Messenger
	mgr    *arena.Manager
	cat    *msgcat.Catalog
	stats  StatsSource
}

func NewRouter(cfg Config, client Messenger, mgr *arena.Manager, cat *msgcat.Catalog) *Router {
	return &Router{cfg: cfg.withDefaults(), client: client, mgr: mgr, cat: cat}
}

// AttachStats wires the optional stats backend.
func (r *Router) AttachStats(s StatsSource) { r.stats = s }

// SubscribeAnnouncements posts outcome messages into the channel the game
// ran in.
func (r *Router) SubscribeAnnouncements(hub *events.Hub) {
	hub.Subscribe(events.GameWin, func(ctx context.Context, ev events.Event) error {
		p, ok := ev.Payload.(arena.GameWinPayload)
		if !ok {
			return nil
		}
		text := r.cat.MustRender("game.win", map[string]any{
			"Winner": p.Winner.DisplayName(),
			"Loser":  p.Loser.DisplayName(),
		})
		_, err := r.client.SendMessage(ctx, p.Channel.ID, domain.Content{Text: text, Color: r.cfg.EmbedColor})
		return err
	})
	hub.Subscribe(events.GameTie, func(ctx context.Context, ev events.Event) error {
		p, ok := ev.Payload.(arena.GameTiePayload)
		if !ok {
			return nil
		}
		text := r.cat.MustRender("game.tie", map[string]any{
			"First":  p.Entities[0].DisplayName(),
			"Second": p.Entities[1].DisplayName(),
		})
		_, err := r.client.SendMessage(ctx, p.Channel.ID, domain.Content{Text: text, Color: r.cfg.EmbedColor})
		return err
	})
}

// HandleEvent is the gateway callback. Unknown frames are dropped.
func (r *Router) HandleEvent(ctx context.Context, ev relay.Event) {
	switch {
	case ev.Type == relay.EventMessage && ev.Message != nil:
		r.handleMessage(ctx, ev.Message)
	case ev.Type == relay.EventInteraction && ev.Interaction != nil:
		r.handleInteraction(ctx, ev.Interaction)
	case ev.Type == relay.EventReaction && ev.Reaction != nil:
		r.handleReaction(ctx, ev.Reaction)
	}
}

func (r *Router) handleMessage(ctx context.Context, ev *relay.MessageEvent) {
	text := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(text, r.cfg.Prefix) || ev.Author.Bot {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(text, r.cfg.Prefix))
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	t := tunnel.NewMessageTunnel(r.client, ev)

	switch cmd {
	case "duel":
		if len(ev.Mentions) == 0 {
			r.reply(ctx, t, "duel.usage", map[string]any{"Prefix": r.cfg.Prefix})
			return
		}
		r.runDuel(ctx, t, ev.Mentions[0])
	case "play":
		difficulty := ""
		if len(args) > 0 {
			difficulty = args[0]
		}
		r.runPlay(ctx, t, difficulty)
	case "stats":
		r.runStats(ctx, t)
	case "resign":
		r.runResign(ctx, t)
	default:
		obslog.L().Debug("unknown_command", zap.String("command", cmd))
	}
}

func (r *Router) handleInteraction(ctx context.Context, ev *relay.InteractionEvent) {
	t := tunnel.NewInteractionTunnel(r.client, ev)
	switch strings.ToLower(ev.Command) {
	case "duel":
		if ev.Target == nil {
			r.reply(ctx, t, "duel.usage", map[string]any{"Prefix": "/"})
			return
		}
		r.runDuel(ctx, t, *ev.Target)
	case "play":
		r.runPlay(ctx, t, ev.Options["difficulty"])
	case "stats":
		r.runStats(ctx, t)
	case "resign":
		r.runResign(ctx, t)
	default:
		obslog.L().Debug("unknown_interaction", zap.String("command", ev.Command))
	}
}

// handleReaction routes accept/decline reactions back to the pending
// request attached to the reacted message. Other reactions are noise.
func (r *Router) handleReaction(ctx context.Context, ev *relay.ReactionEvent) {
	req, ok := r.mgr.PendingRequest(ev.MessageID)
	if !ok {
		return
	}
	switch ev.Emoji {
	case r.cfg.AcceptReaction:
		req.Resolve(ev.Member, true)
	case r.cfg.DeclineReaction:
		req.Resolve(ev.Member, false)
	}
}

func (r *Router) runDuel(ctx context.Context, t tunnel.Tunnel, invited domain.Member) {
	req, err := r.mgr.RequestDuel(ctx, t, invited)
	if err != nil {
		r.replyError(ctx, t, err, invited)
		return
	}
	if req == nil {
		return
	}
	go r.awaitRequest(req)
}

// awaitRequest drives one request to its terminal state: edits the
// invitation message to reflect the answer and promotes an acceptance into
// a running game.
func (r *Router) awaitRequest(req *arena.DuelRequest) {
	res := req.Await(context.Background())
	r.mgr.DiscardRequest(req)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data := map[string]any{
		"Inviter": req.Inviter().Name,
		"Invited": req.Invited().Name,
	}
	switch res {
	case arena.ResolutionAccepted:
		r.editRequestMessage(ctx, req, "duel.accepted", data)
		invited := req.Invited()
		if _, err := r.mgr.CreateGame(ctx, req.Tunnel(), &invited); err != nil {
			r.replyError(ctx, req.Tunnel(), err, invited)
		}
	case arena.ResolutionDeclined:
		r.editRequestMessage(ctx, req, "duel.declined", data)
	case arena.ResolutionExpired:
		r.editRequestMessage(ctx, req, "duel.expired", data)
	}
}

func (r *Router) editRequestMessage(ctx context.Context, req *arena.DuelRequest, key string, data map[string]any) {
	msg := req.Message()
	if msg == nil {
		return
	}
	content := domain.Content{Text: r.cat.MustRender(key, data), Color: r.cfg.EmbedColor}
	if err := r.client.EditMessage(ctx, msg, content); err != nil {
		obslog.L().Warn("request_message_edit_error",
			zap.String("request_id", req.ID()),
			zap.Error(err),
		)
	}
}

func (r *Router) runPlay(ctx context.Context, t tunnel.Tunnel, difficulty string) {
	var err error
	if difficulty != "" {
		_, err = r.mgr.CreateGameWithDifficulty(ctx, t, difficulty)
	} else {
		_, err = r.mgr.CreateGame(ctx, t, nil)
	}
	if err != nil {
		r.replyError(ctx, t, err, domain.Member{})
	}
}

func (r *Router) runStats(ctx context.Context, t tunnel.Tunnel) {
	if r.stats == nil {
		obslog.L().Debug("stats_command_without_backend")
		return
	}
	author := t.Author()
	s, err := r.stats.Stats(ctx, author.ID)
	if err != nil {
		r.reply(ctx, t, "errors.internal", nil)
		return
	}
	if s.Total() == 0 {
		r.reply(ctx, t, "stats.empty", map[string]any{"Name": author.Name})
		return
	}
	r.reply(ctx, t, "stats.line", map[string]any{
		"Name":   author.Name,
		"Wins":   s.Wins,
		"Losses": s.Losses,
		"Ties":   s.Draws,
	})
}

// runResign ends the author's running game in this channel as a decisive
// win for the opponent.
func (r *Router) runResign(ctx context.Context, t tunnel.Tunnel) {
	author := t.Author()
	channelID := t.Channel().ID
	for _, board := range r.mgr.Boards() {
		if board.Channel().ID != channelID || !board.Has(author.ID) {
			continue
		}
		var self arena.Entity = arena.Player{Member: author}
		r.mgr.EndGame(board, arena.Decisive(board.OpponentOf(self)))
		return
	}
	r.reply(ctx, t, "game.none", nil)
}

func (r *Router) reply(ctx context.Context, t tunnel.Tunnel, key string, data map[string]any) {
	content := domain.Content{Text: r.cat.MustRender(key, data), Color: r.cfg.EmbedColor}
	if _, err := t.ReplyWith(ctx, content); err != nil {
		obslog.L().Warn("command_reply_error", zap.String("key", key), zap.Error(err))
	}
}

// replyError translates arena sentinel errors into user-facing text. The
// reply is flagged ephemeral so the interaction transport can deliver it
// privately.
func (r *Router) replyError(ctx context.Context, t tunnel.Tunnel, err error, invited domain.Member) {
	var key string
	data := map[string]any{}
	switch {
	case errors.Is(err, arena.ErrGameInProgress):
		key = "game.in_progress"
	case errors.Is(err, arena.ErrDuelCooldown):
		key = "duel.cooldown"
		data["Inviter"] = t.Author().Name
		data["Remaining"] = r.cooldownRemaining(t.Author().ID)
	case errors.Is(err, arena.ErrSelfInvite):
		key = "invite.self"
	case errors.Is(err, arena.ErrBotInvite):
		key = "invite.bot"
	case errors.Is(err, arena.ErrInvitedNotInChannel):
		key = "invite.not_here"
		data["Invited"] = invited.Name
	case errors.Is(err, arena.ErrGameVetoed):
		key = "game.vetoed"
		data["Reason"] = vetoReason(err)
	default:
		obslog.L().Error("command_error", zap.Error(err))
		key = "errors.internal"
	}
	content := domain.Content{
		Text:             r.cat.MustRender(key, data),
		Color:            r.cfg.EmbedColor,
		EphemeralOnError: true,
	}
	if _, rerr := t.ReplyWith(ctx, content); rerr != nil {
		obslog.L().Warn("error_reply_failed", zap.String("key", key), zap.Error(rerr))
	}
}

func (r *Router) cooldownRemaining(memberID string) string {
	until, ok := r.mgr.CooldownUntil(memberID)
	if !ok {
		return "a moment"
	}
	return time.Until(until).Round(time.Second).String()
}

// vetoReason strips the sentinel prefix, leaving the handler's own words.
func vetoReason(err error) string {
	s := err.Error()
	if i := strings.Index(s, ": "); i >= 0 {
		return s[i+2:]
	}
	return s
}
