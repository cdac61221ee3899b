package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/verdane/duelbot/internal/obslog"
)

// Type names a notification kind.
type Type string

const (
	// GameStarting fires before a session is registered; a handler error
	// vetoes the start.
	GameStarting Type = "game.starting"
	// GameWin and GameTie report terminal outcomes; handler errors are
	// logged and never propagate.
	GameWin Type = "game.win"
	GameTie Type = "game.tie"
)

// Event is a notification with a typed name and an opaque payload. Payload
// structs are defined by the emitting package.
type Event struct {
	Type    Type
	Payload any
}

// Handler reacts to an event. For veto-capable dispatches the returned
// error carries the veto reason.
type Handler func(ctx context.Context, ev Event) error

// Hub is an in-process notification dispatcher. Handlers run synchronously
// in subscription order on the dispatching goroutine.
type Hub struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

func NewHub() *Hub {
	return &Hub{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for one event type.
func (h *Hub) Subscribe(t Type, fn Handler) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.handlers[t] = append(h.handlers[t], fn)
	h.mu.Unlock()
}

// Dispatch runs handlers until the first error, which is returned as the
// veto result. Handlers after the failing one do not run.
func (h *Hub) Dispatch(ctx context.Context, ev Event) error {
	for _, fn := range h.snapshot(ev.Type) {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Publish runs all handlers; errors are logged and swallowed. Used for
// outcome notifications where no handler may block the teardown.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	for _, fn := range h.snapshot(ev.Type) {
		if err := fn(ctx, ev); err != nil {
			obslog.L().Warn("event_handler_error",
				zap.String("event", string(ev.Type)),
				zap.Error(err),
			)
		}
	}
}

func (h *Hub) snapshot(t Type) []Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Handler, len(h.handlers[t]))
	copy(out, h.handlers[t])
	return out
}
