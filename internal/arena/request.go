package arena

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdane/duelbot/internal/domain"
	"github.com/verdane/duelbot/internal/tunnel"
)

// Resolution is the terminal state of a duel request.
type Resolution int

const (
	ResolutionPending Resolution = iota
	ResolutionAccepted
	ResolutionDeclined
	ResolutionExpired
)

func (r Resolution) String() string {
	switch r {
	case ResolutionAccepted:
		return "accepted"
	case ResolutionDeclined:
		return "declined"
	case ResolutionExpired:
		return "expired"
	default:
		return "pending"
	}
}

// DuelRequest is a pending two-party invitation. It is born Pending,
// resolves exactly once to Accepted, Declined or Expired, and is never
// reused: a declined or expired request requires a brand-new one.
type DuelRequest struct {
	id      string
	tn      tunnel.Tunnel
	inviter domain.Member
	invited domain.Member
	channel domain.Channel

	expire          time.Duration
	acceptReaction  string
	declineReaction string
	color           int
	createdAt       time.Time

	mu    sync.Mutex
	state Resolution
	done  chan Resolution
	msg   *domain.MessageRef
}

// newDuelRequest computes the outgoing invitation content but performs no
// I/O; the manager replies and attaches afterwards.
func newDuelRequest(t tunnel.Tunnel, invited domain.Member, cfg Config) *DuelRequest {
	return &DuelRequest{
		id:              uuid.New().String(),
		tn:              t,
		inviter:         t.Author(),
		invited:         invited,
		channel:         t.Channel(),
		expire:          cfg.RequestExpire,
		acceptReaction:  cfg.AcceptReaction,
		declineReaction: cfg.DeclineReaction,
		color:           cfg.EmbedColor,
		createdAt:       time.Now(),
		state:           ResolutionPending,
		done:            make(chan Resolution, 1),
	}
}

func (r *DuelRequest) ID() string              { return r.id }
func (r *DuelRequest) Tunnel() tunnel.Tunnel   { return r.tn }
func (r *DuelRequest) Inviter() domain.Member  { return r.inviter }
func (r *DuelRequest) Invited() domain.Member  { return r.invited }
func (r *DuelRequest) Channel() domain.Channel { return r.channel }

// Content renders the invitation: participants, countdown and the two
// configured response reactions.
func (r *DuelRequest) Content() domain.Content {
	text := fmt.Sprintf("⚔️ %s, %s challenges you to a duel! React with %s to accept or %s to decline. The request expires in %s.",
		r.invited.Name, r.inviter.Name, r.acceptReaction, r.declineReaction, r.expire)
	return domain.Content{
		Text:      text,
		Color:     r.color,
		Reactions: []string{r.acceptReaction, r.declineReaction},
	}
}

// Attach binds the request to the message that carries it. Reactions on
// that message are routed back through Resolve.
func (r *DuelRequest) Attach(msg *domain.MessageRef) {
	r.mu.Lock()
	r.msg = msg
	r.mu.Unlock()
}

func (r *DuelRequest) Message() *domain.MessageRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msg
}

func (r *DuelRequest) State() Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Resolve records a definitive answer from the invited member. Input from
// anyone else, or after the request left Pending, is ignored. Returns
// whether the call resolved the request.
func (r *DuelRequest) Resolve(by domain.Member, accepted bool) bool {
	if by.ID != r.invited.ID {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != ResolutionPending {
		return false
	}
	if accepted {
		r.state = ResolutionAccepted
	} else {
		r.state = ResolutionDeclined
	}
	r.done <- r.state
	return true
}

// Await blocks until the invited member answers or the configured expire
// duration (measured from construction) elapses. Context cancellation
// counts as expiry: the moment has passed.
func (r *DuelRequest) Await(ctx context.Context) Resolution {
	remaining := time.Until(r.createdAt.Add(r.expire))
	if remaining < 0 {
		remaining = 0
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case res := <-r.done:
		return res
	case <-timer.C:
		return r.markExpired()
	case <-ctx.Done():
		return r.markExpired()
	}
}

func (r *DuelRequest) markExpired() Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == ResolutionPending {
		r.state = ResolutionExpired
	}
	return r.state
}
