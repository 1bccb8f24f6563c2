package analytics

import (
	"math/rand"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// BootstrapResult is a confidence interval for a resampled statistic
type BootstrapResult struct {
	Estimate float64
	Lower    float64
	Upper    float64
}

// Bootstrap resamples the daily return series with replacement and reports a
// confidence interval for the annualized mean return. The generator is seeded
// so repeated calls over the same series agree.
func Bootstrap(returns []float64, iterations int, confidence float64) BootstrapResult {
	if len(returns) == 0 || iterations <= 0 {
		return BootstrapResult{}
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	rng := rand.New(rand.NewSource(42))
	annualize := func(meanDaily float64) float64 { return meanDaily * TradingDaysPerYear }

	samples := make([]float64, iterations)
	resample := make([]float64, len(returns))
	for i := 0; i < iterations; i++ {
		for j := range resample {
			resample[j] = returns[rng.Intn(len(returns))]
		}
		samples[i] = annualize(stat.Mean(resample, nil))
	}
	sort.Float64s(samples)

	alpha := (1 - confidence) / 2
	lower := samples[int(alpha*float64(iterations))]
	upper := samples[lo.Min([]int{int((1-alpha)*float64(iterations)), iterations - 1})]

	return BootstrapResult{
		Estimate: annualize(stat.Mean(returns, nil)),
		Lower:    lower,
		Upper:    upper,
	}
}
