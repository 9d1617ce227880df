package climatology

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Normal is a fitted normal distribution.
type Normal struct {
	Mean     float64
	Variance float64
}

// StdDev returns the square root of the variance.
func (n Normal) StdDev() float64 {
	return math.Sqrt(n.Variance)
}

// Fit computes the maximum-likelihood normal (population variance) over the
// years of values that fall inside the baseline. Fewer than two such years is
// ErrInsufficientData.
func Fit(values map[int]float64, baseline domain.Baseline) (Normal, error) {
	years := make([]int, 0, len(values))
	for y := range values {
		if baseline.Contains(y) {
			years = append(years, y)
		}
	}
	if len(years) < 2 {
		return Normal{}, fmt.Errorf("%w: %d years in baseline %s", domain.ErrInsufficientData, len(years), baseline)
	}

	// Fixed summation order keeps the fit reproducible across map iterations.
	slices.Sort(years)
	x := make([]float64, len(years))
	for i, y := range years {
		x[i] = values[y]
	}

	mean, variance := stat.PopMeanVariance(x, nil)
	return Normal{Mean: mean, Variance: variance}, nil
}
