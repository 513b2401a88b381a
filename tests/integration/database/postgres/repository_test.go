package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dkoroteev/linkcut/internal/config"
	"github.com/dkoroteev/linkcut/internal/database"
	"github.com/dkoroteev/linkcut/internal/database/postgres"
	"github.com/dkoroteev/linkcut/internal/service"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func setupPostgres(t testing.TB) config.Postgres {
	t.Helper()

	ctx := context.Background()

	pgUser := "test"
	pgPassword := "test"
	pgDB := "linkcut"

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForExposedPort(),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	pgHost, err := pgCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	pgPort, err := pgCont.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return config.Postgres{
		User:     pgUser,
		Password: pgPassword,
		Host:     pgHost,
		Port:     pgPort.Int(),
		DB:       pgDB,
		SSLMode:  "disable",
	}
}

func runMigrations(t testing.TB, cfg config.Postgres) {
	t.Helper()

	migrationPath := "file://../../../../migrations"

	m, err := migrate.New(migrationPath, cfg.DSN())
	if err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			t.Fatalf("Failed to rollback migrations: %v", err)
		}
	})
}

func setupDB(t testing.TB) *sqlx.DB {
	t.Helper()

	cfg := setupPostgres(t)
	runMigrations(t, cfg)

	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("Failed to close database: %v", err)
		}
	})

	return db
}

func TestURLRepository(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}

	ctx := context.Background()
	db := setupDB(t)
	repo := postgres.NewURLRepository(db)

	t.Run("create and lookup", func(t *testing.T) {
		url, err := repo.Create(ctx, 100000, "q0U", "https://example.com/a/b/c")

		require.NoError(t, err)
		require.NotNil(t, url)
		assert.EqualValues(t, 100000, url.ID)
		assert.Equal(t, "q0U", url.ShortCode)
		assert.Equal(t, "https://example.com/a/b/c", url.OriginalURL)
		assert.Zero(t, url.Clicks)
		assert.WithinDuration(t, time.Now(), url.CreatedAt, time.Minute)

		byCode, err := repo.GetByShortCode(ctx, "q0U")
		require.NoError(t, err)
		assert.Equal(t, url.ShortCode, byCode.ShortCode)

		byURL, err := repo.GetByOriginalURL(ctx, "https://example.com/a/b/c")
		require.NoError(t, err)
		assert.Equal(t, url.ShortCode, byURL.ShortCode)
	})

	t.Run("duplicate short code is rejected by the constraint", func(t *testing.T) {
		url, err := repo.Create(ctx, 999999, "q0U", "https://example.org/other")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrShortCodeExists)
		assert.Nil(t, url)
	})

	t.Run("lookup misses", func(t *testing.T) {
		url, err := repo.GetByShortCode(ctx, "zzzzz")
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)

		url, err = repo.GetByOriginalURL(ctx, "https://nowhere.example")
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
	})

	t.Run("increment clicks", func(t *testing.T) {
		require.NoError(t, repo.IncrementClicks(ctx, "q0U"))
		require.NoError(t, repo.IncrementClicks(ctx, "q0U"))

		url, err := repo.GetByShortCode(ctx, "q0U")
		require.NoError(t, err)
		assert.EqualValues(t, 2, url.Clicks)
	})

	t.Run("increment clicks on missing code is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.IncrementClicks(ctx, "zzzzz"))
	})
}

func TestSequenceRepository(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}

	ctx := context.Background()
	db := setupDB(t)
	repo := postgres.NewSequenceRepository(db, postgres.DefaultSequenceStart)

	t.Run("first allocation returns the starting offset", func(t *testing.T) {
		value, err := repo.Next(ctx)

		require.NoError(t, err)
		assert.EqualValues(t, 100000, value)
	})

	t.Run("allocations are strictly increasing", func(t *testing.T) {
		prev, err := repo.Next(ctx)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			value, err := repo.Next(ctx)

			require.NoError(t, err)
			assert.Greater(t, value, prev)
			prev = value
		}
	})

	t.Run("concurrent allocations never collide", func(t *testing.T) {
		const workers = 50

		var wg sync.WaitGroup
		values := make(chan int64, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				value, err := repo.Next(ctx)
				assert.NoError(t, err)
				values <- value
			}()
		}

		wg.Wait()
		close(values)

		seen := make(map[int64]bool, workers)
		for value := range values {
			assert.Falsef(t, seen[value], "value %d issued twice", value)
			seen[value] = true
		}
		assert.Len(t, seen, workers)
	})
}

func TestURLService_ConcurrentShortens(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}

	ctx := context.Background()
	db := setupDB(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewURLService(
		postgres.NewURLRepository(db),
		postgres.NewSequenceRepository(db, postgres.DefaultSequenceStart),
		logger,
		3*time.Second,
	)

	const workers = 20

	var wg sync.WaitGroup
	codes := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			url, created, err := svc.Shorten(ctx, fmt.Sprintf("https://example.com/page/%d", i))
			assert.NoError(t, err)
			assert.True(t, created)
			codes <- url.ShortCode
		}(i)
	}

	wg.Wait()
	close(codes)

	seen := make(map[string]bool, workers)
	for code := range codes {
		assert.Falsef(t, seen[code], "short code %q assigned twice", code)
		seen[code] = true
	}
	assert.Len(t, seen, workers)
}
