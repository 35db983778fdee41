package store

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"funda-listing-notifier/db/migrations"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *ListingStore {
	t.Helper()

	conn, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	provider, err := goose.NewProvider(goose.DialectSQLite3, conn.DB, migrations.FS)
	require.NoError(t, err)
	_, err = provider.Up(context.Background())
	require.NoError(t, err)

	return NewListingStore(NewListingStoreParams{
		Conn:   conn,
		Logger: zap.NewNop().Sugar(),
	})
}

func TestMerge_InsertsNewAndClearsStaging(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Stage(ctx, []string{"/koop/a", "/koop/b"}))

	inserted, err := s.Merge(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	urls, err := s.Unnotified(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/koop/a", "/koop/b"}, urls)

	var staged int
	require.NoError(t, s.conn.Get(&staged, `SELECT COUNT(*) FROM listings_staging`))
	require.Zero(t, staged)
}

func TestMerge_IsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Stage(ctx, []string{"/koop/a", "/koop/b"}))
	_, err := s.Merge(ctx)
	require.NoError(t, err)

	// Same batch again: set-difference yields an empty insert.
	require.NoError(t, s.Stage(ctx, []string{"/koop/a", "/koop/b"}))
	inserted, err := s.Merge(ctx)
	require.NoError(t, err)
	require.Zero(t, inserted)

	var total int
	require.NoError(t, s.conn.Get(&total, `SELECT COUNT(*) FROM listings`))
	require.Equal(t, 2, total)
}

func TestMerge_PartialNewLeavesExistingUntouched(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Stage(ctx, []string{"/koop/a"}))
	_, err := s.Merge(ctx)
	require.NoError(t, err)
	_, err = s.MarkAllNotified(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Stage(ctx, []string{"/koop/a", "/koop/c"}))
	inserted, err := s.Merge(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	urls, err := s.Unnotified(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"/koop/c"}, urls)

	listings, err := s.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	for _, l := range listings {
		if l.URL == "/koop/a" {
			require.True(t, l.Notified)
		}
	}
}

func TestMerge_DeduplicatesWithinBatch(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Stage(ctx, []string{"/koop/a", "/koop/a"}))
	inserted, err := s.Merge(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
}

func TestMarkAllNotified_FlipsOnlyUnnotified(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Stage(ctx, []string{"/koop/a", "/koop/b"}))
	_, err := s.Merge(ctx)
	require.NoError(t, err)

	updated, err := s.MarkAllNotified(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, updated)

	urls, err := s.Unnotified(ctx)
	require.NoError(t, err)
	require.Empty(t, urls)

	// Nothing unnotified left: a second pass is a no-op.
	updated, err = s.MarkAllNotified(ctx)
	require.NoError(t, err)
	require.Zero(t, updated)
}

func TestStage_RejectsEmptyURL(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	err := s.Stage(context.Background(), []string{"/koop/a", ""})
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "stage", serr.Op)
}

func TestStage_EmptyBatchIsNoop(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Stage(context.Background(), nil))
}

func TestList_FiltersOnNotified(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Stage(ctx, []string{"/koop/a"}))
	_, err := s.Merge(ctx)
	require.NoError(t, err)
	_, err = s.MarkAllNotified(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Stage(ctx, []string{"/koop/b"}))
	_, err = s.Merge(ctx)
	require.NoError(t, err)

	tru, fls := true, false

	got, err := s.List(ctx, &tru)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "/koop/a", got[0].URL)

	got, err = s.List(ctx, &fls)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "/koop/b", got[0].URL)
	require.False(t, got[0].FirstSeenAt.IsZero())

	got, err = s.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
}
