// Package redis keeps a short, expiring list of each entity's recent rolls in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/rollbridge/internal/config"
	"github.com/cory-johannsen/rollbridge/internal/session"
)

// Key pattern: rollbridge:recent:{entity}
const keyPrefix = "rollbridge:recent:"

// Entry is a cached roll.
type Entry struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Expression  string    `json:"expression"`
	Substituted string    `json:"substituted"`
	Total       int       `json:"total"`
	Reconciled  bool      `json:"reconciled"`
	CritHit     bool      `json:"crit_hit,omitempty"`
	Critical    bool      `json:"critical,omitempty"`
	TimedOut    bool      `json:"timed_out,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// EntryFromResult flattens a session result for the cache.
func EntryFromResult(res session.Result) Entry {
	e := Entry{
		ID:          res.ID,
		Label:       res.Roll.Label(),
		Expression:  res.Expression.Raw,
		Substituted: res.Outcome.Host.Text,
		Total:       res.Total(),
		Reconciled:  res.Outcome.Reconciled,
		CritHit:     res.CritHit,
		Critical:    res.Critical,
		TimedOut:    res.TimedOut,
		CompletedAt: res.CompletedAt,
	}
	if res.Outcome.Reconciled {
		e.Substituted = res.Outcome.Roll.Substituted
	}
	return e
}

// RecentRolls stores up to max entries per entity, newest first. An entity's
// list expires ttl after its latest roll. It implements session.Recorder.
type RecentRolls struct {
	client redis.Cmdable
	ttl    time.Duration
	max    int
}

// NewRecentRolls creates a RecentRolls on client.
//
// Precondition: client must be non-nil; ttl > 0; max >= 1.
func NewRecentRolls(client redis.Cmdable, ttl time.Duration, max int) *RecentRolls {
	return &RecentRolls{client: client, ttl: ttl, max: max}
}

// NewClient connects to the Redis server named by cfg.
//
// Postcondition: Returns a client that answered PING, or a non-nil error.
func NewClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Record pushes res onto its entity's list, trims the list to max and renews its TTL.
func (r *RecentRolls) Record(ctx context.Context, res session.Result) error {
	data, err := json.Marshal(EntryFromResult(res))
	if err != nil {
		return fmt.Errorf("marshalling roll %s: %w", res.ID, err)
	}
	key := r.key(res.Entity)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(r.max-1))
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("caching roll %s: %w", res.ID, err)
	}
	return nil
}

// Recent returns up to n cached rolls for entity, newest first.
//
// Precondition: n > 0.
// Postcondition: Returns an empty slice when nothing is cached for entity.
func (r *RecentRolls) Recent(ctx context.Context, entity string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}
	raw, err := r.client.LRange(ctx, r.key(entity), 0, int64(n-1)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading recent rolls for %q: %w", entity, err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("unmarshalling cached roll: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear drops entity's cached rolls.
func (r *RecentRolls) Clear(ctx context.Context, entity string) error {
	if err := r.client.Del(ctx, r.key(entity)).Err(); err != nil {
		return fmt.Errorf("clearing recent rolls for %q: %w", entity, err)
	}
	return nil
}

func (r *RecentRolls) key(entity string) string {
	if entity == "" {
		entity = "_"
	}
	return keyPrefix + entity
}
