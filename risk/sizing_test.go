package risk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateUnitSize(t *testing.T) {
	// 10M account, 1% risk, ATR 1000 => 100 shares per unit.
	unit, err := CalculateUnitSize(10_000_000, 1_000, 0.01)
	require.NoError(t, err)
	require.Equal(t, 100, unit)

	// Doubling the ATR halves the unit.
	unit, err = CalculateUnitSize(10_000_000, 2_000, 0.01)
	require.NoError(t, err)
	require.Equal(t, 50, unit)
}

func TestCalculateUnitSize_Rounds(t *testing.T) {
	unit, err := CalculateUnitSize(10_000_000, 1_500, 0.01)
	require.NoError(t, err)
	require.Equal(t, 67, unit) // 66.67 rounds up
}

func TestCalculateUnitSize_InvalidInputs(t *testing.T) {
	_, err := CalculateUnitSize(0, 1_000, 0.01)
	require.Error(t, err)

	_, err = CalculateUnitSize(10_000_000, 0, 0.01)
	require.Error(t, err)

	_, err = CalculateUnitSize(10_000_000, 1_000, 0)
	require.Error(t, err)

	_, err = CalculateUnitSize(10_000_000, 1_000, 1.5)
	require.Error(t, err)
}

func TestAdjustBySignalStrength(t *testing.T) {
	require.Equal(t, 100, AdjustBySignalStrength(100, 85, 80))
	require.Equal(t, 75, AdjustBySignalStrength(100, 75, 80))
	require.Equal(t, 50, AdjustBySignalStrength(100, 65, 80))
	require.Equal(t, 25, AdjustBySignalStrength(100, 55, 80))
	require.Equal(t, 0, AdjustBySignalStrength(100, 45, 80))
}

func TestAdjustBySignalStrength_FloorsFractions(t *testing.T) {
	require.Equal(t, 7, AdjustBySignalStrength(10, 75, 80)) // 7.5 floors to 7
}

func TestCapitalCapShares(t *testing.T) {
	require.Equal(t, 50, CapitalCapShares(10_000_000, 0.25, 50_000))
	require.Equal(t, 0, CapitalCapShares(10_000_000, 0.25, 0))
	require.Equal(t, 0, CapitalCapShares(10_000_000, 0, 50_000))
}

func TestUnitsFor(t *testing.T) {
	require.Equal(t, 2, UnitsFor(200, 100))
	require.Equal(t, 1, UnitsFor(50, 100)) // any non-zero share count is a unit
	require.Equal(t, 0, UnitsFor(0, 100))
	require.Equal(t, 0, UnitsFor(100, 0))
}
