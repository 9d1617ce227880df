package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/scoring"
)

// fieldScorer turns one field's forecast into a FieldReport: evaluate, score,
// benchmark against random forecasts, t-test and hit skill.
type fieldScorer struct {
	scorer *scoring.Scorer
	bench  *scoring.Benchmark
	trials int
	logger *slog.Logger
}

func (s *fieldScorer) score(field domain.Field, forecast domain.FieldForecast, instances []domain.Instance) (domain.FieldReport, error) {
	events, err := s.scorer.Evaluate(field, instances)
	if err != nil {
		return domain.FieldReport{}, err
	}

	res, err := scoring.Score(events, forecast.Calls)
	fr := domain.FieldReport{
		Field:        field,
		Defined:      true,
		Score:        res.Score,
		Penalty:      res.Penalty,
		TotalPenalty: res.TotalPenalty,
		Instances:    len(instances),
	}
	switch {
	case errors.Is(err, domain.ErrDivisionByZero):
		s.logger.Warn("score undefined, every instance is near normal", "field", field, "instances", len(instances))
		fr.Defined = false
		fr.Events = eventReports(events, forecast.Calls, res.Penalized)
		return fr, nil
	case err != nil:
		return domain.FieldReport{}, fmt.Errorf("score %s: %w", field, err)
	}
	fr.Events = eventReports(events, forecast.Calls, res.Penalized)

	outcomes := forecast.Outcomes
	if outcomes == nil {
		outcomes = scoring.Outcomes(events)
	}
	fr.Hits, err = scoring.CountHits(forecast.Calls, outcomes)
	if err != nil {
		return domain.FieldReport{}, err
	}

	trials, err := s.bench.Run(events, s.trials)
	if err != nil {
		return domain.FieldReport{}, err
	}
	tt, err := scoring.OneSampleTTest(trials.Scores, res.Score)
	if err != nil {
		return domain.FieldReport{}, err
	}
	fr.RandomMean = tt.SampleMean
	fr.TStatistic = tt.T
	fr.PValue = tt.PValue

	hs, err := scoring.HitSkill(trials.Calls, outcomes, fr.Hits)
	fr.ExpectedHits = hs.ExpectedHits
	switch {
	case errors.Is(err, domain.ErrDivisionByZero):
		s.logger.Warn("hit skill undefined, random forecasts hit every instance", "field", field)
		fr.HitSkill = math.NaN()
	case err != nil:
		return domain.FieldReport{}, err
	default:
		fr.HitSkill = hs.Skill
	}

	s.logger.Info("field scored",
		"field", field,
		"score", fr.Score,
		"random_mean", fr.RandomMean,
		"t", fr.TStatistic,
		"p_value", fr.PValue,
		"hits", fr.Hits,
		"hit_skill", fr.HitSkill,
	)
	return fr, nil
}

func eventReports(events []scoring.Event, calls []domain.Call, penalized []bool) []domain.EventReport {
	out := make([]domain.EventReport, len(events))
	for i, ev := range events {
		out[i] = domain.EventReport{
			Instance:  ev.Instance,
			Aggregate: ev.Aggregate,
			Baseline:  ev.Baseline,
			Z:         ev.Z,
			Outcome:   ev.Outcome.String(),
			Call:      calls[i].String(),
			Distance:  ev.Distance,
			Penalized: penalized[i],
		}
	}
	return out
}

// sanitize replaces values JSON cannot carry: NaN becomes 0 and an infinite
// value is clamped to the largest finite float of the same sign.
func sanitize(fr domain.FieldReport) domain.FieldReport {
	fr.TStatistic = finite(fr.TStatistic)
	fr.PValue = finite(fr.PValue)
	fr.HitSkill = finite(fr.HitSkill)
	fr.RandomMean = finite(fr.RandomMean)
	return fr
}

func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
