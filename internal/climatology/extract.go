package climatology

import (
	"fmt"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Default supported season-year range, half-open.
const (
	DefaultFirstYear = 1980
	DefaultEndYear   = 2021
)

// Extractor slices a RecordStore into season instances.
type Extractor struct {
	store     *RecordStore
	firstYear int
	endYear   int
}

// NewExtractor supports season years in [firstYear, endYear).
func NewExtractor(store *RecordStore, firstYear, endYear int) *Extractor {
	return &Extractor{store: store, firstYear: firstYear, endYear: endYear}
}

// Years lists the supported season years in order.
func (e *Extractor) Years() []int {
	out := make([]int, 0, max(e.endYear-e.firstYear, 0))
	for y := e.firstYear; y < e.endYear; y++ {
		out = append(out, y)
	}
	return out
}

// Extract returns the daily records of the given season year. The winter of
// year is Dec(year) + Jan/Feb(year+1). Records come back in month order
// (Dec, Jan, Feb for winter), input order within a month.
func (e *Extractor) Extract(season domain.Season, year int) ([]domain.DailyRecord, error) {
	if !season.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidSeason, int(season))
	}
	if year < e.firstYear || year >= e.endYear {
		return nil, fmt.Errorf("%w: year %d not in [%d, %d)", domain.ErrOutOfRange, year, e.firstYear, e.endYear)
	}

	var out []domain.DailyRecord
	for _, span := range season.Span(year) {
		out = append(out, e.store.Month(span.Year, span.Month)...)
	}
	return out, nil
}
