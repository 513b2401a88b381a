package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dkoroteev/linkcut/internal/database"
	"github.com/dkoroteev/linkcut/internal/models"
	"github.com/dkoroteev/linkcut/pkg/base62"
)

var (
	// ErrInvalidURL is returned when the submitted URL is empty, unparseable
	// or doesn't use the http or https scheme.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidShortCode is returned when a short code fails the format check.
	ErrInvalidShortCode = errors.New("invalid short code")
	// ErrStorageConflict is returned when a freshly allocated short code
	// already exists in the store. It signals a corrupted counter and is
	// never retried with a new allocation, which could mask the bug.
	ErrStorageConflict = errors.New("short code conflict after allocation")
)

// maxShortCodeLen bounds the short code format alongside the base-62
// alphabet check.
const maxShortCodeLen = 10

// defaultQueryTimeout is used when no query timeout is configured.
const defaultQueryTimeout = 3 * time.Second

func isValidShortCode(s string) bool {
	return len(s) <= maxShortCodeLen && base62.IsValid(s)
}

// URLRepository defines the url record store used by the business logic layer.
type URLRepository interface {
	// Create inserts a new url record. Returns database.ErrShortCodeExists
	// if the short code is already taken.
	Create(ctx context.Context, id int64, shortCode, originalURL string) (*models.URL, error)

	// GetByShortCode retrieves a url record by its short code.
	// Returns database.ErrURLNotFound if no record matches.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// GetByOriginalURL retrieves a url record by exact match on the
	// original URL. Returns database.ErrURLNotFound if no record matches.
	GetByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error)

	// IncrementClicks increments the click counter for the given short
	// code. A missing record is a no-op.
	IncrementClicks(ctx context.Context, shortCode string) error
}

// SequenceAllocator issues unique, strictly increasing integers.
type SequenceAllocator interface {
	// Next allocates the next sequence value. No two calls ever return
	// the same value.
	Next(ctx context.Context) (int64, error)
}

// URLService implements the shortening and resolution flows on top of a
// url record store and a sequence allocator. Every storage call runs under
// queryTimeout, so a hung backend fails the operation instead of stalling
// the request.
type URLService struct {
	repo         URLRepository
	seq          SequenceAllocator
	logger       *slog.Logger
	queryTimeout time.Duration
}

func NewURLService(repo URLRepository, seq SequenceAllocator, logger *slog.Logger, queryTimeout time.Duration) *URLService {
	if logger == nil {
		logger = slog.Default()
	}
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	return &URLService{
		repo:         repo,
		seq:          seq,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

func (s *URLService) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Shorten maps the original URL to a short code. Shortening the same URL
// twice yields the same code: an existing record is returned with
// created=false and neither the counter nor the store is touched.
// Otherwise a sequence value is allocated, base-62 encoded and inserted,
// relying on the store's uniqueness constraint as the final race-closing
// mechanism.
func (s *URLService) Shorten(ctx context.Context, rawURL string) (*models.URL, bool, error) {
	const op = "service.URLService.Shorten"

	originalURL, err := validateURL(rawURL)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	lookupCtx, cancel := s.storageCtx(ctx)
	url, err := s.repo.GetByOriginalURL(lookupCtx, originalURL)
	cancel()
	if err == nil {
		return url, false, nil
	}
	if !errors.Is(err, database.ErrURLNotFound) {
		return nil, false, fmt.Errorf("%s: failed to check for existing url: %w", op, err)
	}

	allocCtx, cancel := s.storageCtx(ctx)
	id, err := s.seq.Next(allocCtx)
	cancel()
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to allocate sequence value: %w", op, err)
	}

	shortCode := base62.Encode(uint64(id))

	createCtx, cancel := s.storageCtx(ctx)
	url, err = s.repo.Create(createCtx, id, shortCode, originalURL)
	cancel()
	if err != nil {
		if errors.Is(err, database.ErrShortCodeExists) {
			s.logger.Error(
				"allocated short code already exists, sequence counter may be corrupted",
				slog.String("op", op),
				slog.Int64("id", id),
				slog.String("short_code", shortCode),
			)

			return nil, false, fmt.Errorf("%s: %w", op, ErrStorageConflict)
		}

		return nil, false, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return url, true, nil
}

// Resolve returns the record for the given short code and increments its
// click counter in a detached goroutine. The caller never waits for the
// increment and is unaffected by its failure.
func (s *URLService) Resolve(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.Resolve"

	if !isValidShortCode(shortCode) {
		return nil, fmt.Errorf("%s: %q: %w", op, shortCode, ErrInvalidShortCode)
	}

	lookupCtx, cancel := s.storageCtx(ctx)
	url, err := s.repo.GetByShortCode(lookupCtx, shortCode)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	go func() {
		// The request context ends with the response; the increment needs
		// its own lifetime.
		ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
		defer cancel()

		if err := s.repo.IncrementClicks(ctx, shortCode); err != nil {
			s.logger.Warn(
				"failed to increment clicks",
				slog.String("op", op),
				slog.String("short_code", shortCode),
				slog.Any("err", err),
			)
		}
	}()

	return url, nil
}

// Stats returns the record for the given short code without touching the
// click counter.
func (s *URLService) Stats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.Stats"

	if !isValidShortCode(shortCode) {
		return nil, fmt.Errorf("%s: %q: %w", op, shortCode, ErrInvalidShortCode)
	}

	lookupCtx, cancel := s.storageCtx(ctx)
	url, err := s.repo.GetByShortCode(lookupCtx, shortCode)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

func validateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ErrInvalidURL
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}

	return trimmed, nil
}
