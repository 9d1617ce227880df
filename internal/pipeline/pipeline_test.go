package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/observability"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/pipeline"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/scoring"
)

var errSinkDown = errors.New("sink unavailable")

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func testOptions(t *testing.T, fields ...domain.Field) pipeline.Options {
	t.Helper()
	window, err := domain.ParseWindow("2016:spring-2019:winter")
	require.NoError(t, err)
	return pipeline.Options{
		Fields:       fields,
		FirstYear:    1980,
		EndYear:      2021,
		Baselines:    []domain.Baseline{{Start: 1981, End: 2011}, {Start: 1991, End: 2021}},
		Thresholds:   scoring.DefaultThresholds(),
		Window:       window,
		Trials:       100,
		Seed:         7,
		RetryInitial: time.Millisecond,
		RetryMax:     time.Millisecond,
		MaxRetries:   3,
	}
}

func newTestPipeline(t *testing.T, calls pipeline.CallSource, pubs []pipeline.ReportPublisher, fields ...domain.Field) (*pipeline.Pipeline, *observability.Metrics) {
	t.Helper()
	metrics := newTestMetrics()
	p := pipeline.New(&fakeRecords{records: syntheticRecords()}, calls, pubs, testOptions(t, fields...), slog.Default(), metrics)
	return p, metrics
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	pub := &fakePublisher{name: "memory"}
	p, metrics := newTestPipeline(t, &fakeCalls{call: domain.CallAbove}, []pipeline.ReportPublisher{pub},
		domain.FieldAvgTemp, domain.FieldRainfall)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Fields, 2)

	for _, fr := range report.Fields {
		t.Run(string(fr.Field), func(t *testing.T) {
			assert.True(t, fr.Defined)
			assert.Equal(t, 16, fr.Instances)
			require.Len(t, fr.Events, 16)
			assert.InDelta(t, 0.50566, fr.Score, 1e-4)
			assert.Equal(t, 12, fr.Hits, "near and above outcomes verify an above call")
			assert.GreaterOrEqual(t, fr.PValue, 0.0)
			assert.LessOrEqual(t, fr.PValue, 1.0)

			penalized := 0
			for _, ev := range fr.Events {
				if ev.Penalized {
					penalized++
					assert.Equal(t, "below", ev.Outcome)
				}
			}
			assert.Equal(t, 4, penalized)

			last := fr.Events[len(fr.Events)-1]
			assert.Equal(t, 0, last.Baseline, "final winter is graded against the older baseline")
			assert.Equal(t, 1, fr.Events[0].Baseline)
		})
	}

	require.Len(t, pub.published, 1)
	assert.Equal(t, report.RunID, pub.published[0].RunID)
	require.NoError(t, p.CheckReadiness(context.Background()))

	last, ok := p.LastReport()
	require.True(t, ok)
	assert.Equal(t, report.RunID, last.RunID)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 200, testutil.ToFloat64(metrics.BenchmarkTrials), 0)
	assert.InDelta(t, 42*12*3, testutil.ToFloat64(metrics.RecordsLoaded), 0)
}

func TestPipeline_NotReadyBeforeRun(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeCalls{}, nil, domain.FieldAvgTemp)

	require.Error(t, p.CheckReadiness(context.Background()))
	_, ok := p.LastReport()
	assert.False(t, ok)
}

func TestPipeline_Run_Deterministic(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	run := func() domain.Report {
		p, _ := newTestPipeline(t, &fakeCalls{call: domain.CallBelow}, nil, domain.FieldAvgTemp)
		r, err := p.Run(context.Background())
		require.NoError(t, err)
		return r
	}

	first, second := run(), run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed and clock produced different reports (-first +second):\n%s", diff)
	}
}

func TestPipeline_Run_UndefinedScore(t *testing.T) {
	p, metrics := newTestPipeline(t, &fakeCalls{call: domain.CallAbove}, nil, domain.FieldSunshine)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Fields, 1)

	fr := report.Fields[0]
	assert.False(t, fr.Defined)
	assert.InDelta(t, 1, fr.Score, 0)
	assert.Zero(t, fr.TotalPenalty)
	assert.Zero(t, fr.PValue)
	require.Len(t, fr.Events, 16)
	for _, ev := range fr.Events {
		assert.Equal(t, "near", ev.Outcome)
	}
	assert.Zero(t, testutil.ToFloat64(metrics.BenchmarkTrials), "benchmark is skipped")
}

func TestPipeline_Run_ForecastOutcomes(t *testing.T) {
	outcomes := make([]domain.Outcome, 16)
	for i := range outcomes {
		outcomes[i] = domain.OutcomeNear
	}
	p, _ := newTestPipeline(t, &fakeCalls{call: domain.CallBelow, outcomes: outcomes}, nil, domain.FieldAvgTemp)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	fr := report.Fields[0]
	assert.True(t, fr.Defined, "the score still uses observed categories")
	assert.Equal(t, 16, fr.Hits)
	assert.InDelta(t, 16, fr.ExpectedHits, 0)
	assert.Zero(t, fr.HitSkill, "undefined hit skill is reported as zero")

	_, err = json.Marshal(report)
	require.NoError(t, err)
}

func TestPipeline_Run_RetriesPublish(t *testing.T) {
	flaky := &fakePublisher{name: "flaky", failTimes: 2}
	p, metrics := newTestPipeline(t, &fakeCalls{call: domain.CallAbove}, []pipeline.ReportPublisher{flaky}, domain.FieldAvgTemp)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.attempts)
	assert.Len(t, flaky.published, 1)
	assert.Zero(t, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("flaky")))
}

func TestPipeline_Run_PublishFailureDoesNotStopOtherSinks(t *testing.T) {
	broken := &fakePublisher{name: "broken", failTimes: -1}
	healthy := &fakePublisher{name: "healthy"}
	p, metrics := newTestPipeline(t, &fakeCalls{call: domain.CallAbove},
		[]pipeline.ReportPublisher{broken, healthy}, domain.FieldAvgTemp)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errSinkDown)
	assert.Contains(t, err.Error(), "publish to broken")
	assert.NotEmpty(t, report.RunID, "the report is returned with the publish error")

	assert.Equal(t, 4, broken.attempts, "initial attempt plus three retries")
	assert.Len(t, healthy.published, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("broken")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("error")), 0)
	require.NoError(t, p.CheckReadiness(context.Background()), "scoring completed")
}

func TestPipeline_Run_LoadErrors(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		metrics := newTestMetrics()
		p := pipeline.New(&fakeRecords{err: errors.New("disk gone")}, &fakeCalls{}, nil,
			testOptions(t, domain.FieldAvgTemp), slog.Default(), metrics)

		_, err := p.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load records")
		require.Error(t, p.CheckReadiness(context.Background()))
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("error")), 0)
	})

	t.Run("calls", func(t *testing.T) {
		p, _ := newTestPipeline(t, &fakeCalls{err: errors.New("no file")}, nil, domain.FieldAvgTemp)

		_, err := p.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load forecast calls")
	})

	t.Run("window outside data", func(t *testing.T) {
		opts := testOptions(t, domain.FieldAvgTemp)
		opts.Window = domain.Window{
			Start: domain.Instance{Year: 2021, Season: domain.Spring},
			End:   domain.Instance{Year: 2021, Season: domain.Summer},
		}
		p := pipeline.New(&fakeRecords{records: syntheticRecords()}, &fakeCalls{}, nil, opts, slog.Default(), newTestMetrics())

		_, err := p.Run(context.Background())
		require.Error(t, err)

		var stageErr *domain.StageError
		require.ErrorAs(t, err, &stageErr)
		require.ErrorIs(t, err, domain.ErrOutOfRange)
		assert.Equal(t, domain.FieldAvgTemp, stageErr.Field)
		assert.Equal(t, 2021, stageErr.Year)
	})
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeCalls{call: domain.CallAbove}, nil, domain.FieldAvgTemp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
