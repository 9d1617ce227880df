package sqlite

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(runID string, at time.Time, score float64) domain.Report {
	autumn := domain.Instance{Year: 2020, Season: domain.Autumn}
	winter := domain.Instance{Year: 2020, Season: domain.Winter}
	return domain.Report{
		RunID:       runID,
		GeneratedAt: at,
		Window:      domain.Window{Start: autumn, End: winter},
		Baselines:   []domain.Baseline{{Start: 1981, End: 2011}},
		Thresholds:  domain.Thresholds{CDFAbove: 0.7, CDFBelow: 0.3, ZAbove: 0.5244, ZBelow: -0.5244},
		Trials:      100,
		Seed:        42,
		Fields: []domain.FieldReport{{
			Field:        domain.FieldAvgTemp,
			Defined:      true,
			Score:        score,
			Penalty:      1,
			TotalPenalty: 2,
			Instances:    2,
			PValue:       0.03,
			HitSkill:     50,
			Events: []domain.EventReport{
				{Instance: autumn, Aggregate: 24.1, Z: 0.9, Outcome: "above", Call: "above", Distance: 1},
				{Instance: winter, Aggregate: 16.2, Z: -0.8, Outcome: "below", Call: "above", Distance: 1, Penalized: true},
			},
		}},
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, len(migrations), n)
}

func TestPublish_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Publish(ctx, sampleReport("run-1", at, 0.5)))

	history, err := s.FieldHistory(ctx, domain.FieldAvgTemp, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "run-1", history[0].RunID)
	assert.True(t, history[0].Defined)
	assert.InDelta(t, 0.5, history[0].Score, 1e-12)
	assert.InDelta(t, 50, history[0].HitSkill, 1e-12)

	n, err := s.CountEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPublish_ReplacesSameRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Publish(ctx, sampleReport("run-1", at, 0.5)))
	require.NoError(t, s.Publish(ctx, sampleReport("run-1", at, 0.75)))

	history, err := s.FieldHistory(ctx, domain.FieldAvgTemp, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 0.75, history[0].Score, 1e-12)

	n, err := s.CountEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPublish_SeedBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r := sampleReport("run-max", at, 0.5)
	r.Seed = math.MaxInt64
	require.NoError(t, s.Publish(ctx, r))

	var seed int64
	require.NoError(t, s.db.QueryRow("SELECT seed FROM runs WHERE run_id = ?", "run-max").Scan(&seed))
	assert.Equal(t, int64(math.MaxInt64), seed)

	r = sampleReport("run-wrap", at, 0.5)
	r.Seed = math.MaxUint64
	require.Error(t, s.Publish(ctx, r))

	n, err := s.CountEvents(ctx, "run-wrap")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFieldHistory_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Publish(ctx, sampleReport("run-old", base, 0.1)))
	require.NoError(t, s.Publish(ctx, sampleReport("run-new", base.Add(time.Hour), 0.2)))

	history, err := s.FieldHistory(ctx, domain.FieldAvgTemp, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "run-new", history[0].RunID)

	none, err := s.FieldHistory(ctx, domain.FieldRainfall, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestName(t *testing.T) {
	assert.Equal(t, "sqlite", newTestStore(t).Name())
}
