package scoring

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// TTest is the result of a one-sample two-sided t-test.
type TTest struct {
	N          int
	SampleMean float64
	T          float64
	DF         float64
	PValue     float64
}

// OneSampleTTest tests whether sample's population mean equals mu. The sample
// standard deviation is Bessel-corrected. A sample with no spread yields p=1
// when its mean equals mu and p=0 otherwise.
func OneSampleTTest(sample []float64, mu float64) (TTest, error) {
	n := len(sample)
	if n < 2 {
		return TTest{}, fmt.Errorf("t-test: %w: %d samples", domain.ErrInsufficientData, n)
	}

	mean, sd := stat.MeanStdDev(sample, nil)
	res := TTest{N: n, SampleMean: mean, DF: float64(n - 1)}

	if sd == 0 {
		if mean == mu {
			res.PValue = 1
			return res, nil
		}
		res.T = math.Copysign(math.Inf(1), mean-mu)
		return res, nil
	}

	res.T = (mean - mu) / (sd / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DF}
	res.PValue = 2 * dist.Survival(math.Abs(res.T))
	return res, nil
}
