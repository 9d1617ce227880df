package scoring

import (
	"fmt"
	"math"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/climatology"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Source supplies seasonal aggregates and fitted normals.
type Source interface {
	Aggregate(field domain.Field, season domain.Season, year int) (float64, error)
	Normal(field domain.Field, season domain.Season, baseline int) (climatology.Normal, error)
}

// TransitionPolicy picks the baseline index per instance: a final winter
// instance uses Final, everything else uses Default. This mirrors a handover
// between official baseline periods where the latest season is still graded
// against the older normals.
type TransitionPolicy struct {
	Default int
	Final   int
}

// DefaultPolicy grades the final winter against baseline 0 and the rest
// against baseline 1.
var DefaultPolicy = TransitionPolicy{Default: 1, Final: 0}

// PolicyFor returns DefaultPolicy when at least two baselines exist and a
// single-baseline policy otherwise.
func PolicyFor(baselines int) TransitionPolicy {
	if baselines < 2 {
		return TransitionPolicy{}
	}
	return DefaultPolicy
}

// Baseline returns the baseline index for instances[i].
func (p TransitionPolicy) Baseline(instances []domain.Instance, i int) int {
	if i == len(instances)-1 && instances[i].Season == domain.Winter {
		return p.Final
	}
	return p.Default
}

// Event is one evaluation instance graded against its climatology. Events do
// not depend on the forecast, so they are evaluated once per field and reused
// for every call vector.
type Event struct {
	Instance  domain.Instance
	Aggregate float64
	Baseline  int
	Z         float64
	Outcome   domain.Outcome
	// Distance is |Z - threshold| for above/below outcomes and 0 for near.
	Distance float64
}

// Result is the outcome of scoring one call vector.
type Result struct {
	Score        float64
	Penalty      float64
	TotalPenalty float64
	Penalized    []bool
}

// Scorer computes the standardized-anomaly penalty score.
type Scorer struct {
	source     Source
	thresholds domain.Thresholds
	policy     TransitionPolicy
}

// NewScorer creates a Scorer.
func NewScorer(source Source, th domain.Thresholds, policy TransitionPolicy) *Scorer {
	return &Scorer{source: source, thresholds: th, policy: policy}
}

// Thresholds returns the thresholds the scorer classifies with.
func (s *Scorer) Thresholds() domain.Thresholds {
	return s.thresholds
}

// Evaluate grades every instance of the field against its selected normal.
func (s *Scorer) Evaluate(field domain.Field, instances []domain.Instance) ([]Event, error) {
	events := make([]Event, len(instances))
	for i, inst := range instances {
		if !inst.Season.Valid() {
			return nil, fmt.Errorf("evaluate: %w: %d", domain.ErrInvalidSeason, int(inst.Season))
		}

		value, err := s.source.Aggregate(field, inst.Season, inst.Year)
		if err != nil {
			return nil, domain.NewStageError("evaluate aggregate", field, inst.Season, inst.Year, err)
		}

		idx := s.policy.Baseline(instances, i)
		normal, err := s.source.Normal(field, inst.Season, idx)
		if err != nil {
			return nil, domain.NewStageError("evaluate normal", field, inst.Season, inst.Year, err)
		}

		z := (value - normal.Mean) / math.Sqrt(normal.Variance)
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, domain.NewStageError("evaluate anomaly", field, inst.Season, inst.Year,
				fmt.Errorf("%w: zero climatological variance", domain.ErrDivisionByZero))
		}

		ev := Event{Instance: inst, Aggregate: value, Baseline: idx, Z: z, Outcome: Classify(s.thresholds, z)}
		switch ev.Outcome {
		case domain.OutcomeAbove:
			ev.Distance = math.Abs(z - s.thresholds.ZAbove)
		case domain.OutcomeBelow:
			ev.Distance = math.Abs(z - s.thresholds.ZBelow)
		}
		events[i] = ev
	}
	return events, nil
}

// Score accumulates the penalty of a call vector aligned with events. Every
// above/below event adds its distance to TotalPenalty; it adds to Penalty only
// when the call leans the other way. A zero TotalPenalty returns
// ErrDivisionByZero with Score set to 1.
func Score(events []Event, calls []domain.Call) (Result, error) {
	if len(calls) != len(events) {
		return Result{}, fmt.Errorf("score: %d calls for %d instances", len(calls), len(events))
	}

	res := Result{Penalized: make([]bool, len(events))}
	for i, ev := range events {
		switch ev.Outcome {
		case domain.OutcomeAbove:
			res.TotalPenalty += ev.Distance
			if calls[i] != domain.CallAbove {
				res.Penalty += ev.Distance
				res.Penalized[i] = true
			}
		case domain.OutcomeBelow:
			res.TotalPenalty += ev.Distance
			if calls[i] != domain.CallBelow {
				res.Penalty += ev.Distance
				res.Penalized[i] = true
			}
		}
	}

	if res.TotalPenalty == 0 {
		res.Score = 1
		return res, fmt.Errorf("score: %w: no instance outside the near-normal band", domain.ErrDivisionByZero)
	}
	res.Score = 1 - res.Penalty/res.TotalPenalty
	return res, nil
}

// ScoreField evaluates the field and scores the calls in one step.
func (s *Scorer) ScoreField(field domain.Field, calls []domain.Call, instances []domain.Instance) (Result, error) {
	events, err := s.Evaluate(field, instances)
	if err != nil {
		return Result{}, err
	}
	return Score(events, calls)
}

// Outcomes returns the category of each event.
func Outcomes(events []Event) []domain.Outcome {
	out := make([]domain.Outcome, len(events))
	for i, ev := range events {
		out[i] = ev.Outcome
	}
	return out
}
