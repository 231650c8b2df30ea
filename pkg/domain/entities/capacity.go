package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CapacityRecord tracks working-hour capacity for one process on one day.
// ShiftHours and WorkstationCount are owned by the capacity-configuration
// collaborator; the scheduling core only writes OccupiedHours/RemainingHours.
type CapacityRecord struct {
	ProcessName      ProcessName
	Date             time.Time
	ShiftHours       decimal.Decimal
	WorkstationCount int
	OccupiedHours    decimal.Decimal
	RemainingHours   decimal.Decimal
}

// NewCapacityRecord creates a validated CapacityRecord with nothing occupied.
func NewCapacityRecord(process ProcessName, date time.Time, shiftHours decimal.Decimal, workstations int) (*CapacityRecord, error) {
	if string(process) == "" {
		return nil, fmt.Errorf("process name cannot be empty")
	}
	if shiftHours.IsNegative() {
		return nil, fmt.Errorf("shift hours cannot be negative, got %s", shiftHours)
	}
	if workstations < 0 {
		return nil, fmt.Errorf("workstation count cannot be negative, got %d", workstations)
	}

	rec := &CapacityRecord{
		ProcessName:      process,
		Date:             Day(date),
		ShiftHours:       shiftHours,
		WorkstationCount: workstations,
		OccupiedHours:    decimal.Zero,
	}
	rec.Recompute()
	return rec, nil
}

// ZeroCapacityRecord is the sentinel for a process-date with no configured
// capacity: fully unavailable, not an error.
func ZeroCapacityRecord(process ProcessName, date time.Time) *CapacityRecord {
	return &CapacityRecord{
		ProcessName:      process,
		Date:             Day(date),
		ShiftHours:       decimal.Zero,
		WorkstationCount: 0,
		OccupiedHours:    decimal.Zero,
		RemainingHours:   decimal.Zero,
	}
}

// TotalHours returns shiftHours * workstationCount.
func (c *CapacityRecord) TotalHours() decimal.Decimal {
	return c.ShiftHours.Mul(decimal.NewFromInt(int64(c.WorkstationCount)))
}

// Recompute refreshes RemainingHours from the invariant
// remaining = shiftHours*workstationCount - occupiedHours, clamped at zero.
func (c *CapacityRecord) Recompute() {
	remaining := c.TotalHours().Sub(c.OccupiedHours)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	c.RemainingHours = remaining
}

// IsZero reports whether this record offers no capacity at all.
func (c *CapacityRecord) IsZero() bool {
	return c.TotalHours().IsZero()
}
