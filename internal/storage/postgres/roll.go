package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rollbridge/internal/session"
)

// ErrInvalidLimit is returned when a listing limit is not positive.
var ErrInvalidLimit = errors.New("limit must be positive")

// RollRecord is one row of roll history.
type RollRecord struct {
	ID          uuid.UUID
	Entity      string
	Action      string
	RollType    string
	DamageType  string
	Expression  string
	Substituted string
	Total       int
	Kept        [][]int
	Reconciled  bool
	Critical    bool
	TimedOut    bool
	CreatedAt   time.Time
}

// RecordFromResult flattens a session result into a history row. An
// unreconciled roll keeps the host's total and breakdown.
//
// Precondition: res.ID is a UUID string.
func RecordFromResult(res session.Result) (RollRecord, error) {
	id, err := uuid.Parse(res.ID)
	if err != nil {
		return RollRecord{}, fmt.Errorf("parsing roll id %q: %w", res.ID, err)
	}
	rec := RollRecord{
		ID:          id,
		Entity:      res.Entity,
		Action:      res.Roll.Action,
		RollType:    string(res.Roll.RollType),
		DamageType:  res.Roll.DamageType,
		Expression:  res.Expression.Raw,
		Substituted: res.Outcome.Host.Text,
		Total:       res.Total(),
		Kept:        [][]int{},
		Reconciled:  res.Outcome.Reconciled,
		Critical:    res.Critical,
		TimedOut:    res.TimedOut,
		CreatedAt:   res.CompletedAt,
	}
	if res.Outcome.Reconciled {
		rec.Substituted = res.Outcome.Roll.Substituted
		rec.Kept = res.Outcome.Roll.Kept
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return rec, nil
}

// RollRepository persists completed rolls. It implements session.Recorder.
type RollRepository struct {
	db *pgxpool.Pool
}

// NewRollRepository creates a RollRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRollRepository(db *pgxpool.Pool) *RollRepository {
	return &RollRepository{db: db}
}

// Record inserts res into roll_history.
//
// Postcondition: Returns nil once the row is stored; recording the same roll
// twice is a no-op.
func (r *RollRepository) Record(ctx context.Context, res session.Result) error {
	rec, err := RecordFromResult(res)
	if err != nil {
		return err
	}
	return r.Insert(ctx, rec)
}

// Insert stores rec.
func (r *RollRepository) Insert(ctx context.Context, rec RollRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO roll_history
		     (id, entity, action, roll_type, damage_type, expression, substituted,
		      total, kept, reconciled, critical, timed_out, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Entity, rec.Action, rec.RollType, rec.DamageType, rec.Expression, rec.Substituted,
		rec.Total, rec.Kept, rec.Reconciled, rec.Critical, rec.TimedOut, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting roll %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns up to limit rolls for entity, newest first.
//
// Precondition: limit > 0.
// Postcondition: Returns an empty slice when entity has no history.
func (r *RollRepository) ListRecent(ctx context.Context, entity string, limit int) ([]RollRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, entity, action, roll_type, damage_type, expression, substituted,
		        total, kept, reconciled, critical, timed_out, created_at
		 FROM roll_history
		 WHERE entity = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		entity, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rolls for %q: %w", entity, err)
	}
	defer rows.Close()

	records := []RollRecord{}
	for rows.Next() {
		var rec RollRecord
		if err := rows.Scan(
			&rec.ID, &rec.Entity, &rec.Action, &rec.RollType, &rec.DamageType, &rec.Expression,
			&rec.Substituted, &rec.Total, &rec.Kept, &rec.Reconciled, &rec.Critical, &rec.TimedOut,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning roll: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rolls: %w", err)
	}
	return records, nil
}
