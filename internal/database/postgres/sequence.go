package postgres

import (
	"context"
	"fmt"

	"github.com/dkoroteev/linkcut/internal/database"
	"github.com/jmoiron/sqlx"
)

// DefaultSequenceStart is the value the counter row is created with on
// first use.
const DefaultSequenceStart = 100000

const sequenceName = "url_ids"

// SequenceRepository issues a strictly increasing sequence of integers
// backed by a single durable counter row. The increment happens inside
// PostgreSQL, so two concurrent Next calls can never observe the same
// value; gaps from failed transactions are acceptable.
type SequenceRepository struct {
	db    *sqlx.DB
	start int64
}

func NewSequenceRepository(db *sqlx.DB, start int64) *SequenceRepository {
	if start <= 0 {
		start = DefaultSequenceStart
	}

	return &SequenceRepository{
		db:    db,
		start: start,
	}
}

// Next atomically allocates the next sequence value. The counter row is
// created lazily with the starting offset: the insert and the increment
// collapse into one statement, so racing first-boot callers still each
// get a distinct value.
func (r *SequenceRepository) Next(ctx context.Context) (int64, error) {
	const op = "database.postgres.SequenceRepository.Next"

	var value int64
	query := `INSERT INTO sequence_counters(name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET value = sequence_counters.value + 1
		RETURNING value`

	err := r.db.GetContext(ctx, &value, query, sequenceName, r.start)
	if err != nil {
		if isUnavailableError(err) {
			return 0, fmt.Errorf("%s: %w", op, database.ErrStorageUnavailable)
		}

		return 0, fmt.Errorf("%s: failed to allocate sequence value: %w", op, err)
	}

	return value, nil
}
