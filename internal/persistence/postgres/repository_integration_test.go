//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/gtm/internal/domain"
	"example.com/gtm/internal/outbox"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	activity := newActivity("Cold email converts fintech leads")
	activity.Audience = strPtr("Fintech startups")
	activity.StartDate = datePtr(2025, time.December, 1)

	require.NoError(t, repo.Create(ctx, activity))
	require.Positive(t, activity.ID)

	loaded, err := repo.Get(ctx, activity.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, activity.Hypothesis, loaded.Hypothesis)
	require.Equal(t, "Fintech startups", *loaded.Audience)
	require.Nil(t, loaded.Channels)
	require.Equal(t, "2025-12-01", loaded.StartDate.String())
	require.Nil(t, loaded.EndDate)

	assertOutboxEvent(t, ctx, pool, activity.ID, outbox.EventActivityCreated)
}

func TestRepositoryGetAbsent(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	loaded, err := repo.Get(ctx, 9999)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestRepositoryIDsMonotonicAfterDelete(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	first := newActivity("First")
	require.NoError(t, repo.Create(ctx, first))

	found, err := repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, found)

	second := newActivity("Second")
	require.NoError(t, repo.Create(ctx, second))
	require.Greater(t, second.ID, first.ID)
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	activity := newActivity("Cold email")
	activity.Audience = strPtr("Startups")
	require.NoError(t, repo.Create(ctx, activity))

	activity.Hypothesis = "Warm email"
	activity.Audience = nil
	activity.UpdatedAt = time.Now().UTC()
	found, err := repo.Update(ctx, activity)
	require.NoError(t, err)
	require.True(t, found)

	loaded, err := repo.Get(ctx, activity.ID)
	require.NoError(t, err)
	require.Equal(t, "Warm email", loaded.Hypothesis)
	require.Nil(t, loaded.Audience, "update rewrites every column")

	assertOutboxEvent(t, ctx, pool, activity.ID, outbox.EventActivityUpdated)
}

func TestRepositoryUpdateAbsent(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	ghost := newActivity("Ghost")
	ghost.ID = 424242
	found, err := repo.Update(ctx, ghost)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	activity := newActivity("Doomed")
	require.NoError(t, repo.Create(ctx, activity))

	found, err := repo.Delete(ctx, activity.ID)
	require.NoError(t, err)
	require.True(t, found)

	loaded, err := repo.Get(ctx, activity.ID)
	require.NoError(t, err)
	require.Nil(t, loaded)

	assertOutboxEvent(t, ctx, pool, activity.ID, outbox.EventActivityDeleted)

	found, err = repo.Delete(ctx, activity.ID)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	seed := []struct {
		hypothesis string
		audience   string
		channels   string
	}{
		{"Cold email blast", "Fintech startups", "Email"},
		{"Conference booth", "Fintech startups", "Events"},
		{"Cold email follow-up", "Enterprises", "Email"},
	}
	for _, s := range seed {
		activity := newActivity(s.hypothesis)
		activity.Audience = strPtr(s.audience)
		activity.Channels = strPtr(s.channels)
		require.NoError(t, repo.Create(ctx, activity))
	}

	// Case-insensitive substring match.
	got, err := repo.List(ctx, domain.ListFilter{Hypothesis: "COLD", Limit: 100})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Filters combine with AND.
	got, err = repo.List(ctx, domain.ListFilter{Hypothesis: "cold", Audience: "fintech", Limit: 100})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Cold email blast", got[0].Hypothesis)

	got, err = repo.List(ctx, domain.ListFilter{Channels: "email", Audience: "enterprises", Limit: 100})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Cold email follow-up", got[0].Hypothesis)
}

func TestRepositoryListPagination(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newActivity("Activity")))
	}

	page, err := repo.List(ctx, domain.ListFilter{Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, int64(3), page[0].ID)
	require.Equal(t, int64(4), page[1].ID)

	newest, err := repo.List(ctx, domain.ListFilter{Limit: 2, NewestFirst: true})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	require.Equal(t, int64(5), newest[0].ID)
	require.Equal(t, int64(4), newest[1].ID)
}

func setupRepository(t *testing.T, ctx context.Context) (*Repository, *pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("gtm"),
		postgrescontainer.WithUsername("gtm"),
		postgrescontainer.WithPassword("gtm"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	migration := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "db", "migrations", "0001_init.up.sql")
	ddl, err := os.ReadFile(migration)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(ddl))
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return NewRepository(pool), pool, cleanup
}

func assertOutboxEvent(t *testing.T, ctx context.Context, pool *pgxpool.Pool, activityID int64, eventType string) {
	t.Helper()

	var count int
	err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type=$2 AND topic=$3`,
		activityID, eventType, outbox.ActivityEventsTopic,
	).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func newActivity(hypothesis string) *domain.Activity {
	now := time.Now().UTC()
	return &domain.Activity{Hypothesis: hypothesis, CreatedAt: now, UpdatedAt: now}
}

func strPtr(s string) *string { return &s }

func datePtr(year int, month time.Month, day int) *domain.Date {
	d := domain.NewDate(year, month, day)
	return &d
}
