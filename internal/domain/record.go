package domain

import (
	"fmt"
	"slices"
)

// Field names one element of a daily record, e.g. "avgtemp" or "rf".
type Field string

const (
	FieldAvgTemp  Field = "avgtemp"
	FieldMaxTemp  Field = "maxtemp"
	FieldMinTemp  Field = "mintemp"
	FieldDewTemp  Field = "dewtemp"
	FieldHumidity Field = "rh"
	FieldPressure Field = "slp"
	FieldCloud    Field = "cld"
	FieldWind     Field = "avgws"
	FieldRainfall Field = "rf"
	FieldSunshine Field = "sunhr"
)

// Reduction selects how daily values collapse into one seasonal value.
type Reduction int

const (
	// ReduceMean averages the slice (temperature-like elements).
	ReduceMean Reduction = iota
	// ReduceSum accumulates the slice (rainfall-like elements).
	ReduceSum
)

func (r Reduction) String() string {
	if r == ReduceSum {
		return "sum"
	}
	return "mean"
}

var reductions = map[Field]Reduction{
	FieldAvgTemp:  ReduceMean,
	FieldMaxTemp:  ReduceMean,
	FieldMinTemp:  ReduceMean,
	FieldDewTemp:  ReduceMean,
	FieldHumidity: ReduceMean,
	FieldPressure: ReduceMean,
	FieldCloud:    ReduceMean,
	FieldWind:     ReduceMean,
	FieldRainfall: ReduceSum,
	FieldSunshine: ReduceSum,
}

// DefaultScoredFields are the elements forecasts are issued for.
var DefaultScoredFields = []Field{FieldAvgTemp, FieldRainfall}

// ParseField validates a field name against the known HKO elements.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := reductions[f]; !ok {
		return "", fmt.Errorf("unknown field %q", s)
	}
	return f, nil
}

// KnownFields returns every supported element in a stable order.
func KnownFields() []Field {
	out := make([]Field, 0, len(reductions))
	for f := range reductions {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Reduction returns how the field is aggregated over a season.
func (f Field) Reduction() Reduction {
	return reductions[f]
}

// DailyRecord is one day of observations. A field absent from Values was not
// observed that day.
type DailyRecord struct {
	Year   int
	Month  int
	Day    int
	Values map[Field]float64
}

// Value returns the observation for field and whether it is present.
func (r DailyRecord) Value(f Field) (float64, bool) {
	v, ok := r.Values[f]
	return v, ok
}
