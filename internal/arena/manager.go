package arena

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/events"
	"github.com/verdane/duelbot/internal/obslog"
	"github.com/verdane/duelbot/internal/tunnel"
)

// Config is the arena's snapshot of bot configuration.
type Config struct {
	RequestExpire   time.Duration
	RequestCooldown time.Duration
	AcceptReaction  string
	DeclineReaction string
	EmbedColor      int
	AIDifficulty    string
}

func (c Config) withDefaults() Config {
	if c.RequestExpire <= 0 {
		c.RequestExpire = 60 * time.Second
	}
	if c.AcceptReaction == "" {
		c.AcceptReaction = "✅"
	}
	if c.DeclineReaction == "" {
		c.DeclineReaction = "❌"
	}
	return c
}

// ResultSink persists finished matches. Optional; attached after
// construction when a database is configured.
type ResultSink interface {
	SaveResult(ctx context.Context, rec *domain.MatchRecord) error
}

// Manager owns the session registry and the per-member cooldown map. It is
// the single writer for both; every entry point takes the one mutex, so
// validation and mutation are atomic with respect to each other. The
// suspension points (replying, awaiting responses) all happen outside the
// lock.
type Manager struct {
	cfg       Config
	hub       *events.Hub
	validator *Validator

	mu        sync.Mutex
	boards    []*GameBoard
	cooldowns map[string]time.Time // member ID → cooldown expiry
	reserved  map[string]string    // entity ID → channel ID, held during game.starting dispatch
	pending   map[string]*DuelRequest
	byMessage map[string]*GameBoard

	sink ResultSink
}

func NewManager(cfg Config, hub *events.Hub, dir Directory) *Manager {
	if hub == nil {
		hub = events.NewHub()
	}
	return &Manager{
		cfg:       cfg.withDefaults(),
		hub:       hub,
		validator: NewValidator(dir),
		cooldowns: make(map[string]time.Time),
		reserved:  make(map[string]string),
		pending:   make(map[string]*DuelRequest),
		byMessage: make(map[string]*GameBoard),
	}
}

// AttachResultSink wires a persistence backend for finished matches.
func (m *Manager) AttachResultSink(s ResultSink) {
	m.sink = s
}

func (m *Manager) Validator() *Validator { return m.validator }

// RequestDuel runs the two-phase invitation: validate, build the request,
// start the inviter's cooldown, reply and attach. A stale interaction is
// dropped silently with a nil request and nil error. The cooldown starts
// regardless of whether the invited member ever answers.
func (m *Manager) RequestDuel(ctx context.Context, t tunnel.Tunnel, invited domain.Member) (*DuelRequest, error) {
	if !m.validator.InteractionValid(t) {
		obslog.L().Debug("duel_request_stale_interaction")
		return nil, nil
	}
	author := t.Author()

	m.mu.Lock()
	if until, ok := m.cooldowns[author.ID]; ok && until.After(time.Now()) {
		m.mu.Unlock()
		return nil, ErrDuelCooldown
	}
	m.mu.Unlock()

	// Visibility lookup does I/O, so it runs before the registry gate.
	if err := m.validator.ValidateInvite(ctx, t, invited); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if !m.newGamePossibleLocked(t.Channel().ID, author.ID, invited.ID) {
		m.mu.Unlock()
		return nil, ErrGameInProgress
	}
	req := newDuelRequest(t, invited, m.cfg)
	if m.cfg.RequestCooldown > 0 {
		m.cooldowns[author.ID] = time.Now().Add(m.cfg.RequestCooldown)
	}
	m.mu.Unlock()

	msg, err := t.ReplyWith(ctx, req.Content())
	if err != nil {
		return nil, fmt.Errorf("send duel request: %w", err)
	}
	req.Attach(msg)

	m.mu.Lock()
	m.pending[msg.ID] = req
	m.mu.Unlock()

	obslog.L().Info("duel_request",
		zap.String("request_id", req.ID()),
		zap.String("channel_id", req.Channel().ID),
		zap.String("inviter_id", author.ID),
		zap.String("invited_id", invited.ID),
	)
	return req, nil
}

// CreateGame starts a session between the author and either the invited
// member or a fresh AI opponent. Both participant slots are reserved under
// the lock before the veto-capable game.starting notification runs, so two
// racing starts cannot both pass validation; the reservation is rolled
// back on veto.
func (m *Manager) CreateGame(ctx context.Context, t tunnel.Tunnel, invited *domain.Member) (*GameBoard, error) {
	if !m.validator.InteractionValid(t) {
		obslog.L().Debug("create_game_stale_interaction")
		return nil, nil
	}
	var second Entity
	if invited != nil {
		second = Player{Member: *invited}
	} else {
		second = NewAIOpponent(m.cfg.AIDifficulty)
	}
	return m.createGame(ctx, t, second)
}

// CreateGameWithDifficulty starts an AI session at an explicitly chosen
// difficulty, overriding the configured default.
func (m *Manager) CreateGameWithDifficulty(ctx context.Context, t tunnel.Tunnel, difficulty string) (*GameBoard, error) {
	if !m.validator.InteractionValid(t) {
		obslog.L().Debug("create_game_stale_interaction")
		return nil, nil
	}
	return m.createGame(ctx, t, NewAIOpponent(difficulty))
}

func (m *Manager) createGame(ctx context.Context, t tunnel.Tunnel, second Entity) (*GameBoard, error) {
	first := Player{Member: t.Author()}
	ch := t.Channel()
	ids := []string{first.EntityID(), second.EntityID()}

	m.mu.Lock()
	if !m.newGamePossibleLocked(ch.ID, ids...) {
		m.mu.Unlock()
		return nil, ErrGameInProgress
	}
	for _, id := range ids {
		m.reserved[id] = ch.ID
	}
	m.mu.Unlock()

	err := m.hub.Dispatch(ctx, events.Event{
		Type:    events.GameStarting,
		Payload: GameStartingPayload{Channel: ch, Entities: [2]Entity{first, second}},
	})
	if err != nil {
		m.unreserve(ids)
		return nil, fmt.Errorf("%w: %v", ErrGameVetoed, err)
	}

	board := newGameBoard(t, first, second, m.cfg)
	m.mu.Lock()
	for _, id := range ids {
		delete(m.reserved, id)
	}
	m.boards = append(m.boards, board)
	m.mu.Unlock()

	obslog.L().Info("game_create",
		zap.String("board_id", board.ID()),
		zap.String("channel_id", ch.ID),
		zap.String("first_id", ids[0]),
		zap.String("second_id", ids[1]),
	)

	msg, rerr := t.ReplyWith(ctx, board.Content())
	if rerr != nil {
		// The session is already registered; the caller decides whether
		// to tear it down with an Unresolved outcome.
		return board, fmt.Errorf("announce game: %w", rerr)
	}
	board.Attach(msg)

	m.mu.Lock()
	m.byMessage[msg.ID] = board
	m.mu.Unlock()
	return board, nil
}

// EndGame removes exactly one occurrence of the board from the registry
// and classifies the outcome: Decisive emits one win notification naming
// the identity-different loser, Tie emits one tie notification, Unresolved
// emits nothing. Ending a board twice is a no-op.
func (m *Manager) EndGame(board *GameBoard, outcome Outcome) {
	if board == nil {
		return
	}
	removed := false
	m.mu.Lock()
	for i, b := range m.boards {
		if b == board {
			m.boards = append(m.boards[:i], m.boards[i+1:]...)
			removed = true
			break
		}
	}
	if msg := board.Message(); msg != nil {
		delete(m.byMessage, msg.ID)
	}
	m.mu.Unlock()
	if !removed {
		return
	}

	ctx := context.Background()
	ents := board.Entities()
	switch {
	case outcome.IsTie():
		m.hub.Publish(ctx, events.Event{
			Type:    events.GameTie,
			Payload: GameTiePayload{Channel: board.Channel(), Entities: ents},
		})
		m.persist(ctx, board, "", "tie")
	default:
		winner, ok := outcome.Winner()
		if !ok {
			// Unresolved: session ended without a result, nothing to report.
			obslog.L().Info("game_end_unresolved", zap.String("board_id", board.ID()))
			return
		}
		loser := board.OpponentOf(winner)
		m.hub.Publish(ctx, events.Event{
			Type:    events.GameWin,
			Payload: GameWinPayload{Channel: board.Channel(), Winner: winner, Loser: loser},
		})
		m.persist(ctx, board, winner.EntityID(), "win")
	}
	obslog.L().Info("game_end",
		zap.String("board_id", board.ID()),
		zap.String("channel_id", board.Channel().ID),
	)
}

func (m *Manager) persist(ctx context.Context, board *GameBoard, winnerID, result string) {
	if m.sink == nil {
		return
	}
	ents := board.Entities()
	rec := &domain.MatchRecord{
		MatchID:    board.ID(),
		ChannelID:  board.Channel().ID,
		FirstID:    ents[0].EntityID(),
		FirstName:  ents[0].DisplayName(),
		SecondID:   ents[1].EntityID(),
		SecondName: ents[1].DisplayName(),
		Result:     result,
		WinnerID:   winnerID,
		StartedAt:  board.CreatedAt(),
		EndedAt:    time.Now(),
	}
	if err := m.sink.SaveResult(ctx, rec); err != nil {
		obslog.L().Error("match_persist_error",
			zap.String("board_id", board.ID()),
			zap.Error(err),
		)
	}
}

// newGamePossibleLocked combines the registry invariant with the slots
// reserved by in-flight starts. Callers hold m.mu.
func (m *Manager) newGamePossibleLocked(channelID string, memberIDs ...string) bool {
	if !m.validator.NewGamePossible(m.boards, channelID, memberIDs...) {
		return false
	}
	for _, id := range memberIDs {
		if id == "" {
			continue
		}
		if ch, ok := m.reserved[id]; ok && ch == channelID {
			return false
		}
	}
	return true
}

func (m *Manager) unreserve(ids []string) {
	m.mu.Lock()
	for _, id := range ids {
		delete(m.reserved, id)
	}
	m.mu.Unlock()
}

// PendingRequest resolves the duel request attached to a message, if any.
func (m *Manager) PendingRequest(messageID string) (*DuelRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.pending[messageID]
	return req, ok
}

// DiscardRequest drops a resolved request from the pending index.
func (m *Manager) DiscardRequest(req *DuelRequest) {
	if req == nil {
		return
	}
	msg := req.Message()
	if msg == nil {
		return
	}
	m.mu.Lock()
	delete(m.pending, msg.ID)
	m.mu.Unlock()
}

// BoardByMessage resolves the board attached to a message, if any.
func (m *Manager) BoardByMessage(messageID string) (*GameBoard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byMessage[messageID]
	return b, ok
}

// Boards returns a snapshot of the registry for status queries.
func (m *Manager) Boards() []*GameBoard {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*GameBoard, len(m.boards))
	copy(out, m.boards)
	return out
}

// CooldownUntil reports when the member may send the next duel request.
func (m *Manager) CooldownUntil(memberID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.cooldowns[memberID]
	if !ok || !until.After(time.Now()) {
		return time.Time{}, false
	}
	return until, true
}
