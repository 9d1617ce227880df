// Package scoring grades categorical seasonal forecasts with a standardized
// anomaly penalty and benchmarks them against random forecasts.
package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Default quantile levels for the above- and below-normal categories.
const (
	DefaultCDFAbove = 0.70
	DefaultCDFBelow = 0.30
)

// NewThresholds converts the quantile levels into Z-scores with the inverse
// standard-normal CDF.
func NewThresholds(cdfAbove, cdfBelow float64) (domain.Thresholds, error) {
	if !(cdfBelow > 0 && cdfBelow < cdfAbove && cdfAbove < 1) {
		return domain.Thresholds{}, fmt.Errorf("thresholds: want 0 < below < above < 1, got below=%g above=%g", cdfBelow, cdfAbove)
	}
	return domain.Thresholds{
		CDFAbove: cdfAbove,
		CDFBelow: cdfBelow,
		ZAbove:   distuv.UnitNormal.Quantile(cdfAbove),
		ZBelow:   distuv.UnitNormal.Quantile(cdfBelow),
	}, nil
}

// DefaultThresholds returns the 70th/30th percentile thresholds.
func DefaultThresholds() domain.Thresholds {
	th, err := NewThresholds(DefaultCDFAbove, DefaultCDFBelow)
	if err != nil {
		panic(err)
	}
	return th
}

// Classify places a standardized anomaly into its category.
func Classify(th domain.Thresholds, z float64) domain.Outcome {
	switch {
	case z > th.ZAbove:
		return domain.OutcomeAbove
	case z < th.ZBelow:
		return domain.OutcomeBelow
	default:
		return domain.OutcomeNear
	}
}
