package matchlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/verdane/duelbot/internal/domain"
)

// Repository archives finished matches in postgres. It satisfies the
// arena's result sink; when no DATABASE_URL is configured the sink is
// simply never attached.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts one finished match keyed by its match ID, so a
// retried teardown never duplicates a row.
func (r *Repository) SaveResult(ctx context.Context, rec *domain.MatchRecord) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}

	duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO duel_matches (
	    match_id, channel_id,
	    first_id, first_name, second_id, second_name,
	    result, winner_id,
	    started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
	  ) ON CONFLICT (match_id) DO UPDATE SET
	    channel_id=EXCLUDED.channel_id,
	    first_id=EXCLUDED.first_id,
	    first_name=EXCLUDED.first_name,
	    second_id=EXCLUDED.second_id,
	    second_name=EXCLUDED.second_name,
	    result=EXCLUDED.result,
	    winner_id=EXCLUDED.winner_id,
	    started_at=EXCLUDED.started_at,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		rec.MatchID, rec.ChannelID,
		rec.FirstID, rec.FirstName,
		rec.SecondID, rec.SecondName,
		strings.TrimSpace(rec.Result), rec.WinnerID,
		rec.StartedAt, rec.EndedAt, duration,
	)
	return err
}

// RecentByMember lists a member's latest archived matches, newest first.
func (r *Repository) RecentByMember(ctx context.Context, memberID string, limit int) ([]*domain.MatchRecord, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT match_id, channel_id,
	        first_id, first_name, second_id, second_name,
	        result, winner_id, started_at, ended_at
	      FROM duel_matches
	      WHERE first_id = $1 OR second_id = $1
	      ORDER BY ended_at DESC
	      LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.MatchRecord
	for rows.Next() {
		rec := &domain.MatchRecord{}
		if err := rows.Scan(
			&rec.MatchID, &rec.ChannelID,
			&rec.FirstID, &rec.FirstName, &rec.SecondID, &rec.SecondName,
			&rec.Result, &rec.WinnerID, &rec.StartedAt, &rec.EndedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
