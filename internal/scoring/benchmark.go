package scoring

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Trials holds the scores of random forecasts and the calls that produced them.
type Trials struct {
	Scores []float64
	Calls  [][]domain.Call
}

// Benchmark scores uniformly random binary forecasts.
type Benchmark struct {
	rng *rand.Rand
}

// NewBenchmark creates a Benchmark drawing from rng. Tests pass a seeded
// generator for reproducible trials.
func NewBenchmark(rng *rand.Rand) *Benchmark {
	return &Benchmark{rng: rng}
}

// NewSeededRand returns a PCG generator for the seed.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomCalls draws one uniform binary call per instance.
func (b *Benchmark) RandomCalls(n int) []domain.Call {
	calls := make([]domain.Call, n)
	for i := range calls {
		calls[i] = domain.Call(b.rng.IntN(2))
	}
	return calls
}

// Run scores nTrials random call vectors against the events.
func (b *Benchmark) Run(events []Event, nTrials int) (Trials, error) {
	if nTrials <= 0 {
		return Trials{}, fmt.Errorf("benchmark: n_trials must be positive, got %d", nTrials)
	}

	out := Trials{
		Scores: make([]float64, 0, nTrials),
		Calls:  make([][]domain.Call, 0, nTrials),
	}
	for range nTrials {
		calls := b.RandomCalls(len(events))
		res, err := Score(events, calls)
		if err != nil {
			return Trials{}, fmt.Errorf("benchmark trial %d: %w", len(out.Scores), err)
		}
		out.Scores = append(out.Scores, res.Score)
		out.Calls = append(out.Calls, calls)
	}
	return out, nil
}

// HitSkillResult is a Heidke-style skill relative to random forecasts.
type HitSkillResult struct {
	Total         int
	ReferenceHits int
	ExpectedHits  float64
	Skill         float64
}

// CountHits counts calls that verify against outcomes; near-normal outcomes
// always count.
func CountHits(calls []domain.Call, outcomes []domain.Outcome) (int, error) {
	if len(calls) != len(outcomes) {
		return 0, fmt.Errorf("count hits: %d calls for %d outcomes", len(calls), len(outcomes))
	}
	hits := 0
	for i, c := range calls {
		if c.Hit(outcomes[i]) {
			hits++
		}
	}
	return hits, nil
}

// HitSkill compares referenceHits with the mean hit count of the random call
// vectors: (reference - expected) / (total - expected) * 100.
func HitSkill(randomCalls [][]domain.Call, outcomes []domain.Outcome, referenceHits int) (HitSkillResult, error) {
	if len(randomCalls) == 0 {
		return HitSkillResult{}, errors.New("hit skill: no random forecasts")
	}

	var sum int
	for i, calls := range randomCalls {
		h, err := CountHits(calls, outcomes)
		if err != nil {
			return HitSkillResult{}, fmt.Errorf("hit skill trial %d: %w", i, err)
		}
		sum += h
	}

	res := HitSkillResult{
		Total:         len(outcomes),
		ReferenceHits: referenceHits,
		ExpectedHits:  float64(sum) / float64(len(randomCalls)),
	}
	denom := float64(res.Total) - res.ExpectedHits
	if denom == 0 {
		return res, fmt.Errorf("hit skill: %w: random forecasts hit every instance", domain.ErrDivisionByZero)
	}
	res.Skill = (float64(referenceHits) - res.ExpectedHits) / denom * 100
	return res, nil
}
