package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
	"github.com/lfeng/aps/pkg/domain/services"
)

// AllocationRequest describes one candidate (process, date, hours) allocation.
type AllocationRequest struct {
	SourceNo      string
	ProductCode   entities.MaterialCode
	BOMID         string
	CustomerOrder string
	Route         *entities.ProcessRoute

	Date          time.Time
	RequiredHours decimal.Decimal
	TargetQty     entities.Quantity

	// Overflow-chain bookkeeping; zero values for a chain's first row.
	PreviousPlanNo string
	ScheduleCount  int
}

// AllocationEngine turns an AllocationRequest into one ScheduledRow, fitting
// as many of the required hours as the day has left. Daily accounting is
// strictly first-come-first-served in row creation order; there is no
// priority reordering.
type AllocationEngine struct {
	ledger  *CapacityLedger
	planNos *services.PlanNumberGenerator
	logger  *zap.Logger
}

// NewAllocationEngine creates an allocation engine.
func NewAllocationEngine(ledger *CapacityLedger, planNos *services.PlanNumberGenerator, logger *zap.Logger) *AllocationEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationEngine{ledger: ledger, planNos: planNos, logger: logger}
}

// Allocate creates, persists, and capacity-reserves one scheduled row. It
// must run inside the caller's unit of work so the insert and the reservation
// commit or roll back together.
func (e *AllocationEngine) Allocate(ctx context.Context, repos *repositories.Repositories, req AllocationRequest) (*entities.ScheduledRow, error) {
	if req.Route == nil {
		return nil, fmt.Errorf("allocation for %s needs a process route", req.ProductCode)
	}
	process := req.Route.ProcessName

	rec, err := e.ledger.Query(ctx, repos.Capacity, process, req.Date)
	if err != nil {
		return nil, err
	}
	dailyTotal := rec.TotalHours()

	before, err := repos.Schedule.SumScheduledHours(ctx, process, req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to sum prior scheduled hours: %w", err)
	}

	available := dailyTotal.Sub(before)
	if available.IsNegative() {
		available = decimal.Zero
	}

	scheduled := req.RequiredHours
	if scheduled.GreaterThan(available) {
		scheduled = available
	}

	row, err := entities.NewScheduledRow(
		uuid.NewString(),
		e.planNos.Next(req.Route.CodePrefix),
		req.SourceNo,
		req.ProductCode,
		process,
		req.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduled row: %w", err)
	}

	// The ceiling conversion can round a quantity past the chain target when
	// the rate does not divide the hours evenly; never schedule more units
	// than the chain still needs.
	qty := req.Route.UnitsFor(scheduled)
	priorQty, err := repos.Schedule.SumQuantityBySource(ctx, req.SourceNo)
	if err != nil {
		return nil, fmt.Errorf("failed to sum prior chain quantity: %w", err)
	}
	if remaining := req.TargetQty - priorQty; qty > remaining {
		qty = remaining
		if qty < 0 {
			qty = 0
		}
	}

	row.BOMID = req.BOMID
	row.CustomerOrder = req.CustomerOrder
	row.RequiredWorkHours = req.RequiredHours
	row.DailyTotalHours = dailyTotal
	row.DailyScheduledHoursBefore = before
	row.ScheduledWorkHours = scheduled
	row.ScheduleQuantity = qty
	row.TargetQty = req.TargetQty
	row.PreviousScheduleNo = req.PreviousPlanNo
	row.ScheduleCount = req.ScheduleCount
	row.RecomputeRemainingHours()

	if err := repos.Schedule.Insert(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to insert scheduled row %s: %w", row.PlanNo, err)
	}

	if err := e.ledger.Reserve(ctx, repos.Capacity, process, req.Date, scheduled); err != nil {
		return nil, err
	}

	e.logger.Debug("allocated scheduled row",
		zap.String("planNo", row.PlanNo),
		zap.String("process", string(process)),
		zap.String("date", entities.DateKey(req.Date)),
		zap.String("scheduledHours", scheduled.String()),
		zap.Int64("scheduleQty", int64(row.ScheduleQuantity)))

	return row, nil
}
