package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/climatology"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/observability"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/scoring"
)

// RecordSource loads the daily observation records.
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]domain.DailyRecord, error)
}

// CallSource loads the issued forecast calls, aligned with instances, for each field.
type CallSource interface {
	LoadCalls(ctx context.Context, fields []domain.Field, instances []domain.Instance) (domain.ForecastSet, error)
}

// ReportPublisher delivers a finished report to a sink.
type ReportPublisher interface {
	Name() string
	Publish(ctx context.Context, report domain.Report) error
}

// Options configures a scoring run.
type Options struct {
	Fields     []domain.Field
	FirstYear  int
	EndYear    int
	Baselines  []domain.Baseline
	Thresholds domain.Thresholds
	Window     domain.Window
	Trials     int
	Seed       uint64

	// Publish retry schedule. Zero values use 200ms initial, 5s cap, 3 retries.
	RetryInitial time.Duration
	RetryMax     time.Duration
	MaxRetries   uint64
}

// Pipeline orchestrates one load-build-score-publish run.
type Pipeline struct {
	records    RecordSource
	calls      CallSource
	publishers []ReportPublisher
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics

	ready atomic.Bool
	last  atomic.Pointer[domain.Report]
}

// New creates a Pipeline with the given stages and observability.
func New(records RecordSource, calls CallSource, publishers []ReportPublisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.RetryInitial == 0 {
		opts.RetryInitial = 200 * time.Millisecond
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 5 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Pipeline{
		records:    records,
		calls:      calls,
		publishers: publishers,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has produced a report.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no scoring run has completed yet")
	}
	return nil
}

// LastReport returns the report of the most recent completed run.
func (p *Pipeline) LastReport() (domain.Report, bool) {
	r := p.last.Load()
	if r == nil {
		return domain.Report{}, false
	}
	return *r, true
}

// Run executes a full scoring run. The report is returned even when a
// publisher fails; the error then joins every publish failure.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	start := time.Now()
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	report, err := p.score(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return domain.Report{}, err
	}

	p.last.Store(&report)
	p.ready.Store(true)

	if err := p.publish(ctx, report); err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return report, err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("run complete", "run_id", report.RunID, "fields", len(report.Fields), "duration", time.Since(start))
	return report, nil
}

// score loads the inputs, builds the climatology and scores every field.
func (p *Pipeline) score(ctx context.Context) (domain.Report, error) {
	records, err := p.records.LoadRecords(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("load records: %w", err)
	}
	store := climatology.NewRecordStore(records)
	p.metrics.RecordsLoaded.Set(float64(store.Len()))
	first, last := store.YearSpan()
	p.logger.Info("records loaded", "records", store.Len(), "first_year", first, "last_year", last)

	clim, err := climatology.NewBuilder(store, climatology.Options{
		FirstYear: p.opts.FirstYear,
		EndYear:   p.opts.EndYear,
		Fields:    p.opts.Fields,
		Baselines: p.opts.Baselines,
	}).Build()
	if err != nil {
		return domain.Report{}, err
	}

	instances := p.opts.Window.Instances()
	forecasts, err := p.calls.LoadCalls(ctx, p.opts.Fields, instances)
	if err != nil {
		return domain.Report{}, fmt.Errorf("load forecast calls: %w", err)
	}

	fs := &fieldScorer{
		scorer: scoring.NewScorer(clim, p.opts.Thresholds, scoring.PolicyFor(len(p.opts.Baselines))),
		bench:  scoring.NewBenchmark(scoring.NewSeededRand(p.opts.Seed)),
		trials: p.opts.Trials,
		logger: p.logger,
	}

	report := domain.NewReport(p.opts.Window, p.opts.Baselines, p.opts.Thresholds, p.opts.Trials, p.opts.Seed)
	for _, field := range p.opts.Fields {
		if err := ctx.Err(); err != nil {
			return domain.Report{}, err
		}
		fr, err := fs.score(field, forecasts[field], instances)
		if err != nil {
			return domain.Report{}, err
		}
		fr = sanitize(fr)
		p.observeField(fr)
		report.Fields = append(report.Fields, fr)
	}
	return report, nil
}

func (p *Pipeline) observeField(fr domain.FieldReport) {
	p.metrics.FieldScore.WithLabelValues(string(fr.Field)).Set(fr.Score)
	if !fr.Defined {
		return
	}
	p.metrics.FieldPValue.WithLabelValues(string(fr.Field)).Set(fr.PValue)
	p.metrics.FieldHitSkill.WithLabelValues(string(fr.Field)).Set(fr.HitSkill)
	p.metrics.BenchmarkTrials.Add(float64(p.opts.Trials))
}

// publish delivers the report to every publisher, retrying each with
// exponential backoff. A failing sink does not stop the others.
func (p *Pipeline) publish(ctx context.Context, report domain.Report) error {
	var errs []error
	for _, pub := range p.publishers {
		attempt := 0
		op := func() error {
			attempt++
			err := pub.Publish(ctx, report)
			if err != nil {
				p.logger.Warn("publish attempt failed", "sink", pub.Name(), "attempt", attempt, "error", err)
			}
			return err
		}
		if err := backoff.Retry(op, p.newBackOff(ctx)); err != nil {
			p.metrics.PublishErrors.WithLabelValues(pub.Name()).Inc()
			p.logger.Error("publish failed", "sink", pub.Name(), "run_id", report.RunID, "error", err)
			errs = append(errs, fmt.Errorf("publish to %s: %w", pub.Name(), err))
			continue
		}
		p.logger.Info("report published", "sink", pub.Name(), "run_id", report.RunID)
	}
	return errors.Join(errs...)
}

func (p *Pipeline) newBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.opts.RetryInitial
	bo.MaxInterval = p.opts.RetryMax
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, p.opts.MaxRetries), ctx)
}
