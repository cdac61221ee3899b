package domain

import "time"

// MatchRecord is the final shape of a finished duel handed to persistence.
type MatchRecord struct {
	MatchID    string
	ChannelID  string
	FirstID    string
	FirstName  string
	SecondID   string
	SecondName string
	Result     string // "win", "tie"
	WinnerID   string
	StartedAt  time.Time
	EndedAt    time.Time
}
