package risk

import (
	"fmt"
	"math"
)

// PositionRisk is the currency amount a position loses if its stop fires
func PositionRisk(shares int, entry, stop float64) float64 {
	return float64(shares) * math.Abs(entry-stop)
}

// RiskLimitConfig bounds the open risk of the portfolio
type RiskLimitConfig struct {
	MaxRiskPct    float64 // portfolio risk cap as fraction of account
	MaxSingleRisk float64 // single-position risk cap as fraction of account
}

// DefaultRiskLimitConfig returns the standard 2% portfolio / 1% single caps
func DefaultRiskLimitConfig() RiskLimitConfig {
	return RiskLimitConfig{MaxRiskPct: 0.02, MaxSingleRisk: 0.01}
}

// RiskReport summarizes the open risk of the portfolio against its limits
type RiskReport struct {
	PortfolioRisk  float64
	LargestRisk    float64
	PortfolioLimit float64
	SingleLimit    float64
	WithinLimits   bool
	Warnings       []string
}

// CheckRiskLimits verifies the portfolio risk cap and the single-position risk
// cap against the account size, warning at 90% of either limit.
func CheckRiskLimits(account float64, positionRisks []float64, cfg RiskLimitConfig) RiskReport {
	report := RiskReport{
		PortfolioLimit: account * cfg.MaxRiskPct,
		SingleLimit:    account * cfg.MaxSingleRisk,
		WithinLimits:   true,
	}

	for _, r := range positionRisks {
		report.PortfolioRisk += r
		if r > report.LargestRisk {
			report.LargestRisk = r
		}
	}

	if report.PortfolioRisk > report.PortfolioLimit || report.LargestRisk > report.SingleLimit {
		report.WithinLimits = false
	}

	const warnRatio = 0.9
	if report.WithinLimits {
		if report.PortfolioRisk >= warnRatio*report.PortfolioLimit {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("portfolio risk %.0f at %.0f%% of limit %.0f",
					report.PortfolioRisk, report.PortfolioRisk/report.PortfolioLimit*100, report.PortfolioLimit))
		}
		if report.LargestRisk >= warnRatio*report.SingleLimit {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("largest position risk %.0f at %.0f%% of limit %.0f",
					report.LargestRisk, report.LargestRisk/report.SingleLimit*100, report.SingleLimit))
		}
	}

	return report
}
