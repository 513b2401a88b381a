package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkoroteev/linkcut/internal/database"
	"github.com/dkoroteev/linkcut/internal/models"
	"github.com/jmoiron/sqlx"
)

type urlRecord struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		Clicks:      r.Clicks,
		CreatedAt:   r.CreatedAt,
	}
}

// URLRepository is the PostgreSQL implementation of the url record store.
// Short code uniqueness is enforced by the unique constraint on the
// short_code column, which closes the race window between allocation
// and insertion.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new url record with zero clicks, keyed by the
// sequence value the short code was derived from. It returns
// database.ErrShortCodeExists if the short code is already taken.
func (r *URLRepository) Create(ctx context.Context, id int64, shortCode, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(id, short_code, original_url)
		VALUES ($1, $2, $3)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, id, shortCode, originalURL)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}
		if isUnavailableError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrStorageUnavailable)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetByShortCode retrieves a url record by its short code without
// mutating it.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}
		if isUnavailableError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrStorageUnavailable)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetByOriginalURL retrieves a url record by exact match on the original
// URL. It backs the deduplication path of the shortening service.
func (r *URLRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByOriginalURL"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE original_url = $1
		ORDER BY id
		LIMIT 1`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}
		if isUnavailableError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrStorageUnavailable)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// IncrementClicks atomically increments the click counter for the given
// short code. A missing record is a silent no-op: click accounting must
// never fail a resolution.
func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	const op = "database.postgres.URLRepository.IncrementClicks"

	query := `UPDATE urls
		SET clicks = clicks + 1
		WHERE short_code = $1`

	_, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		if isUnavailableError(err) {
			return fmt.Errorf("%s: %w", op, database.ErrStorageUnavailable)
		}

		return fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	return nil
}
