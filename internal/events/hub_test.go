package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchRunsInOrder(t *testing.T) {
	h := NewHub()
	var order []int
	h.Subscribe(GameStarting, func(ctx context.Context, ev Event) error {
		order = append(order, 1)
		return nil
	})
	h.Subscribe(GameStarting, func(ctx context.Context, ev Event) error {
		order = append(order, 2)
		return nil
	})

	err := h.Dispatch(context.Background(), Event{Type: GameStarting})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
}

func TestDispatchStopsAtVeto(t *testing.T) {
	h := NewHub()
	veto := errors.New("channel is closed for games")
	ran := false
	h.Subscribe(GameStarting, func(ctx context.Context, ev Event) error { return veto })
	h.Subscribe(GameStarting, func(ctx context.Context, ev Event) error {
		ran = true
		return nil
	})

	err := h.Dispatch(context.Background(), Event{Type: GameStarting})
	assert.ErrorIs(t, err, veto)
	assert.False(t, ran, "handler after veto must not run")
}

func TestPublishSwallowsErrors(t *testing.T) {
	h := NewHub()
	calls := 0
	h.Subscribe(GameWin, func(ctx context.Context, ev Event) error {
		calls++
		return errors.New("stats backend down")
	})
	h.Subscribe(GameWin, func(ctx context.Context, ev Event) error {
		calls++
		return nil
	})

	h.Publish(context.Background(), Event{Type: GameWin})
	assert.Equal(t, 2, calls, "publish must reach every handler")
}

func TestSubscribeOtherTypeNotCalled(t *testing.T) {
	h := NewHub()
	called := false
	h.Subscribe(GameTie, func(ctx context.Context, ev Event) error {
		called = true
		return nil
	})
	h.Publish(context.Background(), Event{Type: GameWin})
	assert.False(t, called)
}
