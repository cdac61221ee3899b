package arena

import "errors"

var (
	// ErrGameInProgress rejects a new session when a proposed participant
	// is already playing in the channel.
	ErrGameInProgress = errors.New("game already in progress for a participant in this channel")
	// ErrDuelCooldown rejects a duel request from a member whose cooldown
	// window has not elapsed.
	ErrDuelCooldown = errors.New("duel request cooldown active")
	// ErrSelfInvite, ErrBotInvite and ErrInvitedNotInChannel reject
	// invitations that can never be answered.
	ErrSelfInvite          = errors.New("cannot invite yourself to a duel")
	ErrBotInvite           = errors.New("cannot invite a bot account")
	ErrInvitedNotInChannel = errors.New("invited member cannot see this channel")
	// ErrGameVetoed wraps the reason a game.starting handler refused the
	// session.
	ErrGameVetoed = errors.New("game start vetoed")
)
