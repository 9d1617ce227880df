// Package sqlite archives run reports in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Store writes reports to SQLite.
// It implements pipeline.ReportPublisher.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// New wraps an open database.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = discardLogger
	}
	return &Store{db: db, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "sqlite" }

func (s *Store) Close() error {
	return s.db.Close()
}

// Publish stores the report, its field scores and events in one transaction.
// Publishing the same run twice replaces the earlier rows.
func (s *Store) Publish(ctx context.Context, r domain.Report) error {
	if r.Seed > math.MaxInt64 {
		return fmt.Errorf("seed %d does not fit the runs.seed column", r.Seed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	baselines := make([]string, len(r.Baselines))
	for i, b := range r.Baselines {
		baselines[i] = b.String()
	}

	for _, table := range []string{"events", "field_scores", "runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", r.RunID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, generated_at, eval_window, baselines, cdf_above, cdf_below, z_above, z_below, trials, seed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.GeneratedAt.UTC(), r.Window.String(), strings.Join(baselines, ","),
		r.Thresholds.CDFAbove, r.Thresholds.CDFBelow, r.Thresholds.ZAbove, r.Thresholds.ZBelow,
		r.Trials, int64(r.Seed)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range r.Fields {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO field_scores (run_id, field, defined, score, penalty, total_penalty, instances, random_mean, t_statistic, p_value, hits, expected_hits, hit_skill)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, string(f.Field), f.Defined, f.Score, f.Penalty, f.TotalPenalty, f.Instances,
			f.RandomMean, f.TStatistic, f.PValue, f.Hits, f.ExpectedHits, f.HitSkill); err != nil {
			return fmt.Errorf("insert field score %s: %w", f.Field, err)
		}

		for _, ev := range f.Events {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO events (run_id, field, year, season, aggregate, baseline, z, outcome, call, distance, penalized)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.RunID, string(f.Field), ev.Instance.Year, ev.Instance.Season.String(), ev.Aggregate,
				ev.Baseline, ev.Z, ev.Outcome, ev.Call, ev.Distance, ev.Penalized); err != nil {
				return fmt.Errorf("insert event %s %s: %w", f.Field, ev.Instance, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	s.logger.Debug("report archived", "sink", s.Name(), "run_id", r.RunID, "fields", len(r.Fields))
	return nil
}

// FieldScoreRow is an archived per-field result.
type FieldScoreRow struct {
	RunID       string
	GeneratedAt time.Time
	Field       domain.Field
	Defined     bool
	Score       float64
	PValue      float64
	HitSkill    float64
}

// FieldHistory returns the archived results of one field, newest first.
func (s *Store) FieldHistory(ctx context.Context, field domain.Field, limit int) ([]FieldScoreRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.run_id, r.generated_at, f.field, f.defined, f.score, f.p_value, f.hit_skill
		FROM field_scores f
		JOIN runs r ON r.run_id = f.run_id
		WHERE f.field = ?
		ORDER BY r.generated_at DESC
		LIMIT ?
	`, string(field), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FieldScoreRow
	for rows.Next() {
		var row FieldScoreRow
		var name string
		if err := rows.Scan(&row.RunID, &row.GeneratedAt, &name, &row.Defined, &row.Score, &row.PValue, &row.HitSkill); err != nil {
			return nil, err
		}
		row.Field = domain.Field(name)
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountEvents returns the number of archived events of a run.
func (s *Store) CountEvents(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE run_id = ?", runID).Scan(&n)
	return n, err
}
