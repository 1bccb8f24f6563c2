// Package risk implements turtle position sizing, stop-loss rules, the
// four-tier portfolio limits, exposure accounting, and the risk gate that
// composes them into an approve/reject decision.
package risk

import (
	"fmt"
	"math"

	"github.com/quantfoundry/stagetrader/core"
)

// CalculateUnitSize returns the turtle unit: the share count whose one-ATR
// move equals the risked fraction of the account.
//
//	unit = round(balance * riskFraction / ATR)
func CalculateUnitSize(balance, atr, riskFraction float64) (int, error) {
	if balance <= 0 {
		return 0, fmt.Errorf("%w: balance must be positive, got %f", core.ErrInvalidInput, balance)
	}
	if atr <= 0 || math.IsNaN(atr) {
		return 0, fmt.Errorf("%w: ATR must be positive, got %f", core.ErrInvalidInput, atr)
	}
	if riskFraction <= 0 || riskFraction > 1 {
		return 0, fmt.Errorf("%w: risk fraction must be in (0,1], got %f", core.ErrInvalidInput, riskFraction)
	}
	return int(math.Round(balance * riskFraction / atr)), nil
}

// AdjustBySignalStrength scales a share count by the signal strength bucket:
// at or above the threshold 100%, >=70 75%, >=60 50%, >=50 25%, below 0.
func AdjustBySignalStrength(shares int, strength, threshold float64) int {
	var ratio float64
	switch {
	case strength >= threshold:
		ratio = 1.0
	case strength >= 70:
		ratio = 0.75
	case strength >= 60:
		ratio = 0.5
	case strength >= 50:
		ratio = 0.25
	default:
		return 0
	}
	return int(math.Floor(float64(shares) * ratio))
}

// CapitalCapShares returns the maximum share count the capital-ratio cap
// permits at the current price.
func CapitalCapShares(balance, maxCapitalRatio, price float64) int {
	if price <= 0 || maxCapitalRatio <= 0 {
		return 0
	}
	return int(math.Floor(balance * maxCapitalRatio / price))
}

// UnitsFor converts a share count to turtle units, at least one for any
// non-zero share count.
func UnitsFor(shares, unitSize int) int {
	if shares <= 0 || unitSize <= 0 {
		return 0
	}
	units := shares / unitSize
	if units < 1 {
		units = 1
	}
	return units
}
