package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rollbridge/internal/command"
	"github.com/cory-johannsen/rollbridge/internal/config"
	"github.com/cory-johannsen/rollbridge/internal/dice"
	"github.com/cory-johannsen/rollbridge/internal/session"
	"github.com/cory-johannsen/rollbridge/internal/storage/redis"
)

func setup(t *testing.T, max int) (*redis.RecentRolls, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewRecentRolls(client, time.Hour, max), mr
}

func result(entity string, face int) session.Result {
	expr := dice.MustParse("1d20+2")
	return session.Result{
		ID:          fmt.Sprintf("roll-%d", face),
		Entity:      entity,
		Roll:        command.Roll{Action: "Bite", RollType: command.RollTypeToHit},
		Expression:  expr,
		Outcome:     dice.Resolve(expr, dice.HostRoll{Values: dice.FaceValues{20: {face}}}, nil),
		CritHit:     face == 20,
		CompletedAt: time.Date(2026, 10, 19, 20, 0, face, 0, time.UTC),
	}
}

func TestEntryFromResult(t *testing.T) {
	e := redis.EntryFromResult(result("Brienne", 20))
	assert.Equal(t, "roll-20", e.ID)
	assert.Equal(t, "Bite: to hit", e.Label)
	assert.Equal(t, "20+2", e.Substituted)
	assert.Equal(t, 22, e.Total)
	assert.True(t, e.Reconciled)
	assert.True(t, e.CritHit)

	fallback := session.Result{
		Expression: dice.MustParse("1d6"),
		Outcome:    dice.Outcome{Host: dice.HostRoll{Total: 4, Text: "1d6: 4"}, Err: dice.ErrReconciliationMismatch},
	}
	e = redis.EntryFromResult(fallback)
	assert.Equal(t, "1d6: 4", e.Substituted)
	assert.Equal(t, 4, e.Total)
	assert.False(t, e.Reconciled)
}

func TestRecentRolls_NewestFirstAndCapped(t *testing.T) {
	recent, _ := setup(t, 2)
	ctx := context.Background()

	for _, face := range []int{3, 11, 17} {
		require.NoError(t, recent.Record(ctx, result("Brienne", face)))
	}
	require.NoError(t, recent.Record(ctx, result("Elminster", 9)))

	got, err := recent.Recent(ctx, "Brienne", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "roll-17", got[0].ID)
	assert.Equal(t, 19, got[0].Total)
	assert.Equal(t, "roll-11", got[1].ID)
	assert.True(t, got[0].CompletedAt.Equal(result("", 17).CompletedAt))

	got, err = recent.Recent(ctx, "Brienne", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecentRolls_Expire(t *testing.T) {
	recent, mr := setup(t, 5)
	ctx := context.Background()
	require.NoError(t, recent.Record(ctx, result("Brienne", 5)))

	assert.Equal(t, time.Hour, mr.TTL("rollbridge:recent:Brienne"))
	mr.FastForward(2 * time.Hour)

	got, err := recent.Recent(ctx, "Brienne", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecentRolls_ClearAndEmptyEntity(t *testing.T) {
	recent, mr := setup(t, 5)
	ctx := context.Background()
	require.NoError(t, recent.Record(ctx, result("", 8)))
	assert.True(t, mr.Exists("rollbridge:recent:_"))

	require.NoError(t, recent.Clear(ctx, ""))
	got, err := recent.Recent(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = recent.Recent(ctx, "", 0)
	assert.Error(t, err)
}

func TestRecentRolls_RecordsThroughSession(t *testing.T) {
	recent, _ := setup(t, 5)
	ctx := context.Background()

	provider := session.NewLocalProvider(dice.NewSequenceSource(14), zap.NewNop())
	s := session.New(provider, dice.NewLoggedRoller(dice.NewCryptoSource(), zap.NewNop()), session.Options{
		Entity:   "Brienne",
		Timeout:  time.Second,
		Recorder: session.Recorders{recent},
	}, zap.NewNop())
	provider.Bind(s)
	defer s.Close()

	res, err := s.Roll(ctx, command.Roll{Expression: "1d20+2"})
	require.NoError(t, err)

	got, err := recent.Recent(ctx, "Brienne", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, res.ID, got[0].ID)
	assert.Equal(t, 16, got[0].Total)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(context.Background(), config.CacheConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = redis.NewClient(context.Background(), config.CacheConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}
