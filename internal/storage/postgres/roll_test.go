package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rollbridge/internal/command"
	"github.com/cory-johannsen/rollbridge/internal/dice"
	"github.com/cory-johannsen/rollbridge/internal/session"
	"github.com/cory-johannsen/rollbridge/internal/storage/postgres"
	"github.com/cory-johannsen/rollbridge/internal/testutil"
)

type helperT interface {
	require.TestingT
	Helper()
}

func reconciledResult(t helperT, entity, expr string, values dice.FaceValues) session.Result {
	t.Helper()
	e := dice.MustParse(expr)
	out := dice.Resolve(e, dice.HostRoll{Values: values, Text: "host"}, nil)
	require.True(t, out.Reconciled, out.Err)
	return session.Result{
		ID:          uuid.NewString(),
		Entity:      entity,
		Roll:        command.Roll{Command: "hit", Expression: expr, Action: "Longsword", RollType: command.RollTypeToHit},
		Expression:  e,
		Outcome:     out,
		CompletedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRecordFromResult_Reconciled(t *testing.T) {
	res := reconciledResult(t, "Brienne", "2d20kh1+5", dice.FaceValues{20: {4, 17}})
	rec, err := postgres.RecordFromResult(res)
	require.NoError(t, err)

	assert.Equal(t, res.ID, rec.ID.String())
	assert.Equal(t, "Brienne", rec.Entity)
	assert.Equal(t, "Longsword", rec.Action)
	assert.Equal(t, "to hit", rec.RollType)
	assert.Equal(t, "2d20kh1+5", rec.Expression)
	assert.Equal(t, "17+5", rec.Substituted)
	assert.Equal(t, 22, rec.Total)
	assert.Equal(t, [][]int{{17}}, rec.Kept)
	assert.True(t, rec.Reconciled)
	assert.Equal(t, res.CompletedAt, rec.CreatedAt)
}

func TestRecordFromResult_HostFallback(t *testing.T) {
	res := session.Result{
		ID:         uuid.NewString(),
		Expression: dice.MustParse("1d20+1d4"),
		Outcome: dice.Outcome{
			Host: dice.HostRoll{Values: dice.FaceValues{20: {9}}, Total: 9, Text: "1d20: 9"},
			Err:  dice.ErrReconciliationMismatch,
		},
	}
	rec, err := postgres.RecordFromResult(res)
	require.NoError(t, err)
	assert.False(t, rec.Reconciled)
	assert.Equal(t, 9, rec.Total)
	assert.Equal(t, "1d20: 9", rec.Substituted)
	assert.Equal(t, [][]int{}, rec.Kept)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestRecordFromResult_RejectsBadID(t *testing.T) {
	_, err := postgres.RecordFromResult(session.Result{ID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestRollRepository_ListRecent_RejectsLimit(t *testing.T) {
	repo := postgres.NewRollRepository(nil)
	_, err := repo.ListRecent(context.Background(), "Brienne", 0)
	assert.ErrorIs(t, err, postgres.ErrInvalidLimit)
}

func TestRollRepository_RecordAndList(t *testing.T) {
	repo := postgres.NewRollRepository(testutil.NewPool(t))
	ctx := context.Background()

	first := reconciledResult(t, "Brienne", "1d20+5", dice.FaceValues{20: {12}})
	second := reconciledResult(t, "Brienne", "1d8+3", dice.FaceValues{8: {6}})
	second.Roll.RollType = command.RollTypeDamage
	second.Roll.DamageType = "slashing"
	second.Critical = true
	second.CompletedAt = first.CompletedAt.Add(time.Second)
	other := reconciledResult(t, "Elminster", "1d20", dice.FaceValues{20: {3}})

	for _, res := range []session.Result{first, second, other} {
		require.NoError(t, repo.Record(ctx, res))
	}
	require.NoError(t, repo.Record(ctx, first), "recording twice is a no-op")

	got, err := repo.ListRecent(ctx, "Brienne", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID.String())
	assert.Equal(t, "slashing", got[0].DamageType)
	assert.True(t, got[0].Critical)
	assert.Equal(t, [][]int{{6}}, got[0].Kept)
	assert.Equal(t, 9, got[0].Total)
	assert.Equal(t, first.ID, got[1].ID.String())
	assert.Equal(t, "12+5", got[1].Substituted)

	got, err = repo.ListRecent(ctx, "Brienne", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.ListRecent(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestRollRepository_RoundTrip_Property verifies totals and kept values survive storage.
func TestRollRepository_RoundTrip_Property(t *testing.T) {
	repo := postgres.NewRollRepository(testutil.NewPool(t))
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.IntRange(1, 6).Draw(rt, "face")
		entity := uuid.NewString()
		res := reconciledResult(rt, entity, "1d6+2", dice.FaceValues{6: {faces}})
		require.NoError(rt, repo.Record(ctx, res))

		got, err := repo.ListRecent(ctx, entity, 1)
		require.NoError(rt, err)
		require.Len(rt, got, 1)
		assert.Equal(rt, faces+2, got[0].Total)
		assert.Equal(rt, [][]int{{faces}}, got[0].Kept)
	})
}

func TestMigrate_DownAndUp(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)

	res, err := postgres.Migrate(pc.Config.DSN(), testutil.MigrationsDir(), postgres.Up, 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.EqualValues(t, 1, res.Version)

	res, err = postgres.Migrate(pc.Config.DSN(), testutil.MigrationsDir(), postgres.Up, 0)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = postgres.Migrate(pc.Config.DSN(), testutil.MigrationsDir(), postgres.Down, 1)
	require.NoError(t, err)

	_, err = postgres.Migrate(pc.Config.DSN(), testutil.MigrationsDir(), "sideways", 0)
	assert.Error(t, err)
}

func TestPool_ReadyTracksMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	assert.ErrorIs(t, pc.Pool.Ready(ctx, postgres.ReadyTimeout), postgres.ErrNotMigrated)

	pc.ApplyMigrations(t)
	require.NoError(t, pc.Pool.Ready(ctx, postgres.ReadyTimeout))

	var app string
	require.NoError(t, pc.RawPool.QueryRow(ctx, `SELECT current_setting('application_name')`).Scan(&app))
	assert.Equal(t, postgres.ApplicationName, app)

	_, err := postgres.Migrate(pc.Config.DSN(), testutil.MigrationsDir(), postgres.Down, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, pc.Pool.Ready(ctx, postgres.ReadyTimeout), postgres.ErrNotMigrated)
}

func TestMigrate_RejectsNegativeSteps(t *testing.T) {
	_, err := postgres.Migrate("postgres://localhost/none", "migrations", postgres.Up, -1)
	assert.Error(t, err)
}
