package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/hyttebook/backend/internal/common/db"
)

// Sequencer hands out monotonically increasing ids per named counter.
type Sequencer interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

type PgSequencer struct {
	pool *pgxpool.Pool
}

func NewPgSequencer(pool *pgxpool.Pool) *PgSequencer {
	return &PgSequencer{pool: pool}
}

// NextSequence allocates the next value for name. The upsert is a single
// statement, so Postgres row-level atomicity guarantees concurrent callers
// never receive the same value and no value is skipped. An unseen name
// starts at 1.
func (s *PgSequencer) NextSequence(ctx context.Context, name string) (int64, error) {
	start := time.Now()

	var value int64
	err := s.pool.QueryRow(
		ctx,
		`INSERT INTO counters (name, value) VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		 RETURNING value`,
		name,
	).Scan(&value)
	if err != nil {
		return 0, db.HandleQueryError(err, err, "next sequence", start)
	}

	db.MeasureQueryDuration("next sequence", start)
	return value, nil
}
