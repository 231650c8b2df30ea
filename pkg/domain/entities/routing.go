package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProcessRoute maps a process name to its scheduling parameters. The routing
// table is the single parameterization point for the generic allocation
// engine: one engine, many processes, no per-process copies.
type ProcessRoute struct {
	ProcessName  ProcessName
	StoreID      string          // target schedule store/table identifier
	CodePrefix   string          // plan-number prefix, e.g. "PK"
	UnitsPerHour decimal.Decimal // conversion rate between hours and units
	MinRemaining decimal.Decimal // threshold for backward start-date search
	Enabled      bool
}

// NewProcessRoute creates a validated ProcessRoute.
func NewProcessRoute(process ProcessName, storeID, codePrefix string, unitsPerHour decimal.Decimal, enabled bool) (*ProcessRoute, error) {
	if string(process) == "" {
		return nil, fmt.Errorf("process name cannot be empty")
	}
	if storeID == "" {
		return nil, fmt.Errorf("store id cannot be empty")
	}
	if codePrefix == "" {
		return nil, fmt.Errorf("code prefix cannot be empty")
	}
	if !unitsPerHour.IsPositive() {
		return nil, fmt.Errorf("units per hour must be positive, got %s", unitsPerHour)
	}

	return &ProcessRoute{
		ProcessName:  process,
		StoreID:      storeID,
		CodePrefix:   codePrefix,
		UnitsPerHour: unitsPerHour,
		MinRemaining: decimal.Zero,
		Enabled:      enabled,
	}, nil
}

// HoursFor converts a unit quantity into required working hours.
func (r *ProcessRoute) HoursFor(qty Quantity) decimal.Decimal {
	return decimal.NewFromInt(int64(qty)).Div(r.UnitsPerHour)
}

// UnitsFor converts working hours into whole units, rounding up: partial
// hours still produce whole units, never fractional ones.
func (r *ProcessRoute) UnitsFor(hours decimal.Decimal) Quantity {
	return Quantity(hours.Mul(r.UnitsPerHour).Ceil().IntPart())
}
