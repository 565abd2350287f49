package postgres

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration directions.
const (
	Up   = "up"
	Down = "down"
)

// MigrationResult reports the schema version after Migrate.
type MigrationResult struct {
	Version uint
	Dirty   bool
	// Changed is false when the schema was already at the target.
	Changed bool
}

// Migrate applies the SQL migrations in dir to the database at dsn. steps == 0
// migrates all the way in direction.
//
// Precondition: direction is Up or Down; steps >= 0.
// Postcondition: Returns the resulting version, or an error when any migration fails.
func Migrate(dsn, dir, direction string, steps int) (MigrationResult, error) {
	if steps < 0 {
		return MigrationResult{}, fmt.Errorf("invalid steps %d: must be >= 0", steps)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("resolving migrations dir: %w", err)
	}
	m, err := migrate.New("file://"+filepath.ToSlash(abs), dsn)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch direction {
	case Up:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case Down:
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return MigrationResult{}, fmt.Errorf("invalid direction %q: must be %q or %q", direction, Up, Down)
	}

	changed := true
	if errors.Is(err, migrate.ErrNoChange) {
		changed, err = false, nil
	}
	if err != nil {
		return MigrationResult{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("reading schema version: %w", err)
	}
	return MigrationResult{Version: version, Dirty: dirty, Changed: changed}, nil
}
