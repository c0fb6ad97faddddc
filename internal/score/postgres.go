package score

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
)

const gameResultsSchema = `CREATE TABLE IF NOT EXISTS game_results (
	session_id     TEXT        NOT NULL,
	participant_id TEXT        NOT NULL,
	opponent_id    TEXT        NOT NULL,
	game_type      TEXT        NOT NULL,
	outcome        TEXT        NOT NULL,
	score          INTEGER     NOT NULL,
	moves          JSONB       NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL,
	duration_ms    BIGINT      NOT NULL,
	PRIMARY KEY (session_id, participant_id)
)`

// PostgresSink grava uma linha por participante em game_results.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &PostgresSink{db: db}
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, gameResultsSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create game_results")
	}
	return s, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Record(ctx context.Context, r Report) error {
	moves, err := json.Marshal(r.Moves)
	if err != nil {
		return errors.Wrap(err, "encode moves")
	}
	duration := r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO game_results (
		session_id, participant_id, opponent_id, game_type,
		outcome, score, moves, started_at, finished_at, duration_ms
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (session_id, participant_id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, q,
		r.SessionID, r.ParticipantID, r.OpponentID, r.GameType,
		string(r.Outcome), r.Score, string(moves), r.StartedAt, r.FinishedAt, duration,
	)
	return errors.Wrap(err, "insert game result")
}

func (s *PostgresSink) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "postgres ping")
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
