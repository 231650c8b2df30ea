package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ChainState tracks how much of a scheduled row's demand has been placed.
type ChainState int

const (
	Created ChainState = iota
	PartiallyScheduled
	FullyScheduled
)

func (s ChainState) String() string {
	switch s {
	case Created:
		return "Created"
	case PartiallyScheduled:
		return "PartiallyScheduled"
	case FullyScheduled:
		return "FullyScheduled"
	default:
		return "Unknown"
	}
}

// ScheduledRow is one day's allocation of a production requirement. Rows that
// share a SourceNo form an overflow chain: the requirement spilled across
// consecutive days because single-day capacity was insufficient.
type ScheduledRow struct {
	ID          string
	PlanNo      string
	SourceNo    string // chain identity: the root requirement this row satisfies
	ProductCode MaterialCode
	BOMID       string // optional explicit BOM; empty = product default
	ProcessName ProcessName

	ScheduleDate              time.Time
	RequiredWorkHours         decimal.Decimal
	DailyTotalHours           decimal.Decimal
	DailyScheduledHoursBefore decimal.Decimal
	ScheduledWorkHours        decimal.Decimal
	RemainingRequiredHours    decimal.Decimal

	ScheduleQuantity      Quantity
	TargetQty             Quantity // chain replenishment target, same on every row
	CumulativeScheduleQty Quantity
	UnscheduledQty        Quantity

	NextScheduleDate   *time.Time
	PreviousScheduleNo string
	ScheduleCount      int
	CustomerOrder      string
	State              ChainState

	// Seq orders rows strictly by creation for first-come-first-served
	// daily-hours accounting. Assigned by the repository on insert.
	Seq int64
}

// NewScheduledRow creates a validated ScheduledRow.
func NewScheduledRow(id, planNo, sourceNo string, product MaterialCode, process ProcessName, date time.Time) (*ScheduledRow, error) {
	if id == "" {
		return nil, fmt.Errorf("row id cannot be empty")
	}
	if planNo == "" {
		return nil, fmt.Errorf("plan number cannot be empty")
	}
	if sourceNo == "" {
		return nil, fmt.Errorf("source number cannot be empty")
	}
	if string(product) == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if string(process) == "" {
		return nil, fmt.Errorf("process name cannot be empty")
	}

	return &ScheduledRow{
		ID:           id,
		PlanNo:       planNo,
		SourceNo:     sourceNo,
		ProductCode:  product,
		ProcessName:  process,
		ScheduleDate: Day(date),
		State:        Created,
	}, nil
}

// RecomputeRemainingHours refreshes the row's own hour balance.
func (r *ScheduledRow) RecomputeRemainingHours() {
	remaining := r.RequiredWorkHours.Sub(r.ScheduledWorkHours)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	r.RemainingRequiredHours = remaining
}

// ApplyChainAggregate stores freshly aggregated chain totals on this row and
// derives its state. cumulative is the sum of ScheduleQuantity across every
// row sharing this row's SourceNo.
func (r *ScheduledRow) ApplyChainAggregate(cumulative Quantity) {
	r.CumulativeScheduleQty = cumulative
	r.UnscheduledQty = r.TargetQty - cumulative
	switch {
	case r.UnscheduledQty <= 0:
		r.UnscheduledQty = 0
		r.State = FullyScheduled
	case cumulative > 0:
		r.State = PartiallyScheduled
	default:
		r.State = Created
	}
}
