package risk

import (
	"fmt"

	"github.com/quantfoundry/stagetrader/core"
)

// Action is the intent of a candidate signal submitted to the gate
type Action int8

const (
	ActionBuy Action = iota
	ActionExit
)

// Candidate is a signal submitted to the risk gate
type Candidate struct {
	Ticker   string
	Action   Action
	Strength float64
	Price    float64
	ATR      float64
	TrendMA  float64 // configured long-horizon EMA at the signal bar
}

// HeldPosition is the gate's view of an open position
type HeldPosition struct {
	Units  int
	Shares int
	Entry  float64
	Stop   float64
}

// Environment is the portfolio state the gate evaluates against
type Environment struct {
	Balance   float64
	Positions map[string]HeldPosition
}

// GateConfig parameterizes the risk gate
type GateConfig struct {
	RiskPercentage    float64 // turtle risk fraction per unit
	DesiredUnits      int     // units requested per signal
	StrengthThreshold float64 // full-size strength threshold
	ATRMultiplier     float64 // volatility stop multiple
	MaxCapitalRatio   float64 // capital cap per position
	Limits            Limits
	RiskLimits        RiskLimitConfig
}

// DefaultGateConfig returns the standard gate parameters
func DefaultGateConfig() GateConfig {
	return GateConfig{
		RiskPercentage:    0.01,
		DesiredUnits:      2,
		StrengthThreshold: 80,
		ATRMultiplier:     2.0,
		MaxCapitalRatio:   0.25,
		Limits:            DefaultLimits(),
		RiskLimits:        DefaultRiskLimitConfig(),
	}
}

// Approval is the gate's decision. A rejection is a value, not an error:
// Reason carries the rejection cause, Details the intermediate numbers.
type Approval struct {
	Approved   bool
	Reason     string
	Shares     int
	Units      int
	StopPrice  float64
	StopKind   core.StopKind
	RiskAmount float64
	RiskPct    float64
	Warnings   []string
	Details    map[string]any
}

// Gate composes sizing, portfolio limits, stop selection and exposure checks
type Gate struct {
	cfg    GateConfig
	groups *Groups
	log    core.Logger
}

// NewGate creates a risk gate
func NewGate(cfg GateConfig, groups *Groups, log core.Logger) *Gate {
	return &Gate{cfg: cfg, groups: groups, log: log}
}

// Evaluate runs the full approval chain for a candidate signal
func (g *Gate) Evaluate(c Candidate, env Environment) Approval {
	if c.Action == ActionExit {
		return Approval{Approved: true, Reason: "exit"}
	}

	details := map[string]any{"ticker": c.Ticker, "strength": c.Strength}

	unitSize, err := CalculateUnitSize(env.Balance, c.ATR, g.cfg.RiskPercentage)
	if err != nil {
		return g.reject(fmt.Sprintf("sizing failed: %v", err), details)
	}
	details["unit_size"] = unitSize

	desiredShares := unitSize * g.cfg.DesiredUnits
	scaled := AdjustBySignalStrength(desiredShares, c.Strength, g.cfg.StrengthThreshold)
	cap := CapitalCapShares(env.Balance, g.cfg.MaxCapitalRatio, c.Price)
	shares := min(scaled, cap)
	details["scaled_shares"] = scaled
	details["capital_cap_shares"] = cap

	units := UnitsFor(shares, unitSize)
	if units == 0 {
		return g.reject("signal_too_weak", details)
	}

	var warnings []string

	book := make(Book, len(env.Positions))
	for ticker, pos := range env.Positions {
		book[ticker] = pos.Units
	}
	allowed, tier := AvailableUnits(book, g.groups, g.cfg.Limits, c.Ticker)
	details["allowed_units"] = allowed
	details["binding_tier"] = string(tier)

	if allowed == 0 {
		return g.reject(fmt.Sprintf("portfolio_limit: %s", tier), details)
	}
	if allowed < units {
		warnings = append(warnings,
			fmt.Sprintf("clamped from %d to %d units by %s limit", units, allowed, tier))
		units = allowed
		shares = min(shares, units*unitSize)
	}

	stopPrice, stopKind := SelectStop(c.Price, c.ATR, g.cfg.ATRMultiplier, c.TrendMA, core.SideLong)

	newRisk := PositionRisk(shares, c.Price, stopPrice)
	risks := make([]float64, 0, len(env.Positions)+1)
	for _, pos := range env.Positions {
		risks = append(risks, PositionRisk(pos.Shares, pos.Entry, pos.Stop))
	}
	risks = append(risks, newRisk)

	report := CheckRiskLimits(env.Balance, risks, g.cfg.RiskLimits)
	if !report.WithinLimits {
		details["portfolio_risk"] = report.PortfolioRisk
		details["largest_risk"] = report.LargestRisk
		return g.reject("risk_limit_exceeded", details)
	}
	warnings = append(warnings, report.Warnings...)

	return Approval{
		Approved:   true,
		Shares:     shares,
		Units:      units,
		StopPrice:  stopPrice,
		StopKind:   stopKind,
		RiskAmount: newRisk,
		RiskPct:    newRisk / env.Balance * 100,
		Warnings:   warnings,
		Details:    details,
	}
}

func (g *Gate) reject(reason string, details map[string]any) Approval {
	if g.log != nil {
		g.log.WithFields(map[string]any{"reason": reason}).Debug("risk gate rejection")
	}
	return Approval{Approved: false, Reason: reason, Details: details}
}
