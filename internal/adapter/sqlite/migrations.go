package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    generated_at DATETIME NOT NULL,
    eval_window TEXT NOT NULL,
    baselines TEXT NOT NULL,
    cdf_above REAL NOT NULL,
    cdf_below REAL NOT NULL,
    z_above REAL NOT NULL,
    z_below REAL NOT NULL,
    trials INTEGER NOT NULL,
    seed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS field_scores (
    run_id TEXT NOT NULL REFERENCES runs(run_id),
    field TEXT NOT NULL,
    defined BOOLEAN NOT NULL,
    score REAL NOT NULL,
    penalty REAL NOT NULL,
    total_penalty REAL NOT NULL,
    instances INTEGER NOT NULL,
    random_mean REAL,
    t_statistic REAL,
    p_value REAL,
    hits INTEGER,
    expected_hits REAL,
    hit_skill REAL,
    PRIMARY KEY (run_id, field)
);

CREATE TABLE IF NOT EXISTS events (
    run_id TEXT NOT NULL REFERENCES runs(run_id),
    field TEXT NOT NULL,
    year INTEGER NOT NULL,
    season TEXT NOT NULL,
    aggregate REAL NOT NULL,
    baseline INTEGER NOT NULL,
    z REAL NOT NULL,
    outcome TEXT NOT NULL,
    call TEXT NOT NULL,
    distance REAL NOT NULL,
    penalized BOOLEAN NOT NULL,
    PRIMARY KEY (run_id, field, year, season)
);
`,
	},
	{
		Version:     2,
		Description: "Index field scores by field",
		SQL:         `CREATE INDEX IF NOT EXISTS idx_field_scores_field ON field_scores(field, run_id);`,
	},
}

// Migrate applies every migration not yet recorded in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME NOT NULL
		)`); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		s.logger.Info("applying migration", "version", m.Version, "description", m.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func (s *Store) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// discardLogger is used when the caller passes a nil logger.
var discardLogger = slog.New(slog.DiscardHandler)
