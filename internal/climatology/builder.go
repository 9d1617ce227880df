package climatology

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Options configures a Builder.
type Options struct {
	FirstYear int
	EndYear   int
	Fields    []domain.Field
	Baselines []domain.Baseline
}

// Builder derives aggregate caches and normals from a RecordStore.
type Builder struct {
	store *RecordStore
	opts  Options
}

// NewBuilder creates a Builder. Zero year bounds fall back to the defaults.
func NewBuilder(store *RecordStore, opts Options) *Builder {
	if opts.FirstYear == 0 {
		opts.FirstYear = DefaultFirstYear
	}
	if opts.EndYear == 0 {
		opts.EndYear = DefaultEndYear
	}
	return &Builder{store: store, opts: opts}
}

type seriesKey struct {
	field  domain.Field
	season domain.Season
}

// Climatology is the read-only result of a build: per (field, season) yearly
// aggregates and one normal per baseline.
type Climatology struct {
	firstYear  int
	endYear    int
	baselines  []domain.Baseline
	aggregates map[seriesKey]map[int]float64
	normals    map[seriesKey][]Normal
}

// Build computes every aggregate cache, then every normal, in that order.
func (b *Builder) Build() (*Climatology, error) {
	if len(b.opts.Baselines) == 0 {
		return nil, errors.New("build climatology: no baseline periods configured")
	}
	if b.opts.EndYear <= b.opts.FirstYear {
		return nil, fmt.Errorf("build climatology: %w: empty year range [%d, %d)",
			domain.ErrOutOfRange, b.opts.FirstYear, b.opts.EndYear)
	}

	agg := NewAggregator(NewExtractor(b.store, b.opts.FirstYear, b.opts.EndYear))
	c := &Climatology{
		firstYear:  b.opts.FirstYear,
		endYear:    b.opts.EndYear,
		baselines:  b.opts.Baselines,
		aggregates: make(map[seriesKey]map[int]float64),
		normals:    make(map[seriesKey][]Normal),
	}

	for _, f := range b.opts.Fields {
		for _, s := range domain.Seasons {
			values, err := agg.All(f, s)
			if err != nil {
				return nil, err
			}
			c.aggregates[seriesKey{f, s}] = values
		}
	}

	for _, f := range b.opts.Fields {
		for _, s := range domain.Seasons {
			key := seriesKey{f, s}
			normals := make([]Normal, len(b.opts.Baselines))
			for i, bl := range b.opts.Baselines {
				n, err := Fit(c.aggregates[key], bl)
				if err != nil {
					return nil, domain.NewStageError("fit baseline "+bl.String(), f, s, 0, err)
				}
				normals[i] = n
			}
			c.normals[key] = normals
		}
	}
	return c, nil
}

// Baselines returns the configured baseline periods in index order.
func (c *Climatology) Baselines() []domain.Baseline {
	return c.baselines
}

// YearRange returns the season-year range [first, end) the build covers.
func (c *Climatology) YearRange() (first, end int) {
	return c.firstYear, c.endYear
}

// Aggregate returns the cached seasonal value. A year outside the build range
// or a field or season never built is ErrOutOfRange; an in-range year with no
// observations is ErrEmptySlice.
func (c *Climatology) Aggregate(field domain.Field, season domain.Season, year int) (float64, error) {
	if year < c.firstYear || year >= c.endYear {
		return 0, fmt.Errorf("%w: year %d not in [%d, %d)", domain.ErrOutOfRange, year, c.firstYear, c.endYear)
	}
	values, ok := c.aggregates[seriesKey{field, season}]
	if !ok {
		return 0, fmt.Errorf("%w: no aggregates for %s %s", domain.ErrOutOfRange, field, season)
	}
	v, ok := values[year]
	if !ok {
		return 0, fmt.Errorf("%w: no %s observations for %s %d", domain.ErrEmptySlice, field, season, year)
	}
	return v, nil
}

// Series returns a copy of the yearly aggregates for one field and season.
func (c *Climatology) Series(field domain.Field, season domain.Season) map[int]float64 {
	values := c.aggregates[seriesKey{field, season}]
	out := make(map[int]float64, len(values))
	for y, v := range values {
		out[y] = v
	}
	return out
}

// Normal returns the fitted normal for the baseline at index idx.
func (c *Climatology) Normal(field domain.Field, season domain.Season, idx int) (Normal, error) {
	normals, ok := c.normals[seriesKey{field, season}]
	if !ok {
		return Normal{}, fmt.Errorf("%w: no normals for %s %s", domain.ErrOutOfRange, field, season)
	}
	if idx < 0 || idx >= len(normals) {
		return Normal{}, fmt.Errorf("%w: baseline index %d of %d", domain.ErrOutOfRange, idx, len(normals))
	}
	return normals[idx], nil
}
