package stats

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/verdane/duelbot/internal/arena"
	"github.com/verdane/duelbot/internal/events"
	"github.com/verdane/duelbot/internal/obslog"
)

// MemberStats is one member's lifetime win/loss/draw tally.
type MemberStats struct {
	Wins   int64
	Losses int64
	Draws  int64
}

func (s MemberStats) Total() int64 { return s.Wins + s.Losses + s.Draws }

// Recorder keeps per-member tallies in redis: one hash per member plus a
// sorted set ranking members by wins. AI opponents are not tracked.
type Recorder struct {
	rdb *redis.Client
}

func NewRecorder(rdb *redis.Client) *Recorder { return &Recorder{rdb: rdb} }

func (r *Recorder) keyMember(id string) string { return "duel:stats:" + strings.TrimSpace(id) }
func (r *Recorder) keyRanking() string         { return "duel:ranking" }

// Subscribe attaches the recorder to the outcome notifications. Handler
// errors are logged by the hub; a failed tally never blocks teardown.
func (r *Recorder) Subscribe(hub *events.Hub) {
	hub.Subscribe(events.GameWin, func(ctx context.Context, ev events.Event) error {
		p, ok := ev.Payload.(arena.GameWinPayload)
		if !ok {
			return nil
		}
		if err := r.RecordWin(ctx, memberID(p.Winner)); err != nil {
			return err
		}
		return r.RecordLoss(ctx, memberID(p.Loser))
	})
	hub.Subscribe(events.GameTie, func(ctx context.Context, ev events.Event) error {
		p, ok := ev.Payload.(arena.GameTiePayload)
		if !ok {
			return nil
		}
		for _, e := range p.Entities {
			if err := r.RecordDraw(ctx, memberID(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// memberID returns the entity's ID for humans and "" for AI opponents.
func memberID(e arena.Entity) string {
	if p, ok := e.(arena.Player); ok {
		return p.Member.ID
	}
	return ""
}

func (r *Recorder) RecordWin(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if err := r.rdb.HIncrBy(ctx, r.keyMember(id), "wins", 1).Err(); err != nil {
		return err
	}
	return r.rdb.ZIncrBy(ctx, r.keyRanking(), 1, id).Err()
}

func (r *Recorder) RecordLoss(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return r.rdb.HIncrBy(ctx, r.keyMember(id), "losses", 1).Err()
}

func (r *Recorder) RecordDraw(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return r.rdb.HIncrBy(ctx, r.keyMember(id), "draws", 1).Err()
}

// Stats loads one member's tally. A member with no history gets zeroes.
func (r *Recorder) Stats(ctx context.Context, id string) (MemberStats, error) {
	var out MemberStats
	vals, err := r.rdb.HGetAll(ctx, r.keyMember(id)).Result()
	if err != nil {
		return out, err
	}
	out.Wins = parseCount(vals["wins"])
	out.Losses = parseCount(vals["losses"])
	out.Draws = parseCount(vals["draws"])
	return out, nil
}

// RankEntry is one leaderboard row.
type RankEntry struct {
	MemberID string
	Wins     int64
}

// Top returns the n members with the most wins, best first.
func (r *Recorder) Top(ctx context.Context, n int64) ([]RankEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := r.rdb.ZRevRangeWithScores(ctx, r.keyRanking(), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]RankEntry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, RankEntry{MemberID: id, Wins: int64(z.Score)})
	}
	return out, nil
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// Dial opens a redis client from a URL and verifies the connection.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	obslog.L().Info("stats_redis_connected", zap.String("addr", opt.Addr))
	return rdb, nil
}
