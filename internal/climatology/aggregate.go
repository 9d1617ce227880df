package climatology

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Aggregator reduces season slices to one value per field.
type Aggregator struct {
	extractor *Extractor
}

// NewAggregator creates an Aggregator over the extractor's supported range.
func NewAggregator(e *Extractor) *Aggregator {
	return &Aggregator{extractor: e}
}

// Aggregate returns the mean (temperature-like fields) or the sum (rainfall-like
// fields) of the field over the season slice. Days where the field is missing
// are skipped; no observed days at all is ErrEmptySlice.
func (a *Aggregator) Aggregate(field domain.Field, season domain.Season, year int) (float64, error) {
	records, err := a.extractor.Extract(season, year)
	if err != nil {
		return 0, err
	}
	return Reduce(field, records)
}

// All aggregates the field for every supported year. Years with no observed
// days are left out of the map.
func (a *Aggregator) All(field domain.Field, season domain.Season) (map[int]float64, error) {
	out := make(map[int]float64)
	for _, year := range a.extractor.Years() {
		v, err := a.Aggregate(field, season, year)
		if errors.Is(err, domain.ErrEmptySlice) {
			continue
		}
		if err != nil {
			return nil, domain.NewStageError("aggregate", field, season, year, err)
		}
		out[year] = v
	}
	return out, nil
}

// Reduce applies the field's reduction to a slice of records.
func Reduce(field domain.Field, records []domain.DailyRecord) (float64, error) {
	values := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		if v, ok := r.Value(field); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: no %s observations", domain.ErrEmptySlice, field)
	}

	switch field.Reduction() {
	case domain.ReduceSum:
		return stats.Sum(values)
	default:
		return stats.Mean(values)
	}
}
