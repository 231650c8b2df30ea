package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// DefaultChainDepthBound caps the number of rows in one overflow chain.
// Hitting it is surfaced as a RecursionBoundError: a chain that long almost
// always means bad capacity or demand data.
const DefaultChainDepthBound = 100

// ChainRequest asks for a requirement to be fitted into daily capacity,
// splitting across days when a single day cannot hold it.
type ChainRequest struct {
	SourceNo      string
	ProductCode   entities.MaterialCode
	BOMID         string
	CustomerOrder string
	Route         *entities.ProcessRoute
	TargetQty     entities.Quantity
	DueDate       time.Time

	// StartDate overrides the just-in-time backward search when non-zero.
	StartDate time.Time
}

// ChainResult reports the rows created for one chain. Exhausted chains are
// visible, never dropped: the rows carry the unmet quantity and Reason says
// why scheduling stopped.
type ChainResult struct {
	Rows             []*entities.ScheduledRow
	Exhausted        bool
	Reason           string
	ProjectedEndDate time.Time
}

// Scheduled sums the quantity placed across the chain.
func (r *ChainResult) Scheduled() entities.Quantity {
	var total entities.Quantity
	for _, row := range r.Rows {
		total += row.ScheduleQuantity
	}
	return total
}

// OverflowChainBuilder schedules a requirement as a chain of day-sized rows.
// The chain walk is an explicit bounded loop, not call-stack recursion, so
// termination is trivial to test and memory stays flat.
type OverflowChainBuilder struct {
	uow      repositories.UnitOfWork
	alloc    *AllocationEngine
	windows  *DateWindowCalculator
	maxDepth int
	logger   *zap.Logger
}

// NewOverflowChainBuilder creates a chain builder. A non-positive depth bound
// falls back to the default.
func NewOverflowChainBuilder(uow repositories.UnitOfWork, alloc *AllocationEngine, windows *DateWindowCalculator, maxDepth int, logger *zap.Logger) *OverflowChainBuilder {
	if maxDepth <= 0 {
		maxDepth = DefaultChainDepthBound
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverflowChainBuilder{
		uow:      uow,
		alloc:    alloc,
		windows:  windows,
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// BuildChain fits req.TargetQty into daily capacity starting from the latest
// feasible date at or before the due date. Each row is created inside its own
// unit of work: row insert, capacity reservation, and chain-wide aggregate
// recompute commit together or not at all.
func (b *OverflowChainBuilder) BuildChain(ctx context.Context, req ChainRequest) (*ChainResult, error) {
	if req.Route == nil {
		return nil, fmt.Errorf("chain for %s needs a process route", req.ProductCode)
	}
	if req.TargetQty <= 0 {
		return nil, fmt.Errorf("chain target quantity must be positive, got %d", req.TargetQty)
	}

	result := &ChainResult{}
	requiredHours := req.Route.HoursFor(req.TargetQty)
	capRepo := b.uow.Repos().Capacity

	startDate := entities.Day(req.StartDate)
	if req.StartDate.IsZero() {
		found, ok, err := b.windows.FindStartDate(ctx, capRepo, req.Route.ProcessName, req.DueDate, req.Route.MinRemaining)
		if err != nil {
			return nil, fmt.Errorf("start-date search failed: %w", err)
		}
		if !ok {
			// No feasible start anywhere in the window. Force a single row
			// on the due date so the unmet demand stays visible.
			result.Exhausted = true
			result.Reason = fmt.Sprintf("no day with remaining capacity on process %q within %d days before %s",
				req.Route.ProcessName, b.windows.BoundDays(), entities.DateKey(req.DueDate))
			row, err := b.buildRow(ctx, req, req.DueDate, requiredHours, "", 1, false)
			if err != nil {
				return nil, err
			}
			result.Rows = append(result.Rows, row)
			return result, nil
		}
		startDate = found
	}

	if end, err := b.windows.FindEndDate(ctx, capRepo, req.Route.ProcessName, requiredHours, startDate); err != nil {
		var exhausted *entities.CapacityExhaustedError
		if !errors.As(err, &exhausted) {
			return nil, fmt.Errorf("end-date search failed: %w", err)
		}
		// The window cannot hold the full demand. Schedule what fits; the
		// remainder stays on the rows as unscheduled quantity.
		result.Exhausted = true
		result.Reason = exhausted.Error()
	} else {
		result.ProjectedEndDate = end
	}

	date := startDate
	prevPlanNo := ""

	for count := 1; ; count++ {
		if count > b.maxDepth {
			return result, &entities.RecursionBoundError{
				Kind:     "overflow-chain",
				SourceNo: req.SourceNo,
				Bound:    b.maxDepth,
			}
		}

		row, err := b.buildRow(ctx, req, date, requiredHours, prevPlanNo, count, true)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)

		if row.UnscheduledQty <= 0 {
			break
		}
		if row.NextScheduleDate == nil {
			result.Exhausted = true
			result.Reason = fmt.Sprintf("no further date with capacity on process %q within %d days after %s",
				req.Route.ProcessName, b.windows.BoundDays(), entities.DateKey(date))
			break
		}

		requiredHours = row.RequiredWorkHours.Sub(row.ScheduledWorkHours)
		if !requiredHours.IsPositive() {
			// Quantity remains but the hour balance closed due to rounding;
			// re-derive hours from the unmet units.
			requiredHours = req.Route.HoursFor(row.UnscheduledQty)
		}
		date = *row.NextScheduleDate
		prevPlanNo = row.PlanNo
	}

	// Earlier rows were captured before later rows moved the chain aggregate;
	// hand back fresh copies.
	rows, err := b.uow.Repos().Schedule.ListBySource(ctx, req.SourceNo)
	if err != nil {
		return nil, fmt.Errorf("failed to reload chain %s: %w", req.SourceNo, err)
	}
	result.Rows = rows

	b.logger.Info("built overflow chain",
		zap.String("sourceNo", req.SourceNo),
		zap.String("product", string(req.ProductCode)),
		zap.Int("rows", len(result.Rows)),
		zap.Int64("scheduled", int64(result.Scheduled())),
		zap.Bool("exhausted", result.Exhausted))

	return result, nil
}

// buildRow runs one create -> allocate -> recompute step in a single unit of
// work. When searchNext is set and demand remains, the row's NextScheduleDate
// is resolved to the next day with free capacity before commit.
func (b *OverflowChainBuilder) buildRow(ctx context.Context, req ChainRequest, date time.Time, requiredHours decimal.Decimal, prevPlanNo string, count int, searchNext bool) (*entities.ScheduledRow, error) {
	var row *entities.ScheduledRow
	err := b.uow.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		var err error
		row, err = b.alloc.Allocate(ctx, repos, AllocationRequest{
			SourceNo:       req.SourceNo,
			ProductCode:    req.ProductCode,
			BOMID:          req.BOMID,
			CustomerOrder:  req.CustomerOrder,
			Route:          req.Route,
			Date:           date,
			RequiredHours:  requiredHours,
			TargetQty:      req.TargetQty,
			PreviousPlanNo: prevPlanNo,
			ScheduleCount:  count,
		})
		if err != nil {
			return err
		}

		if err := RecomputeChain(ctx, repos, row.SourceNo); err != nil {
			return err
		}

		// Refresh the local copy with the chain-wide aggregate.
		fresh, err := repos.Schedule.GetByPlanNo(ctx, row.PlanNo)
		if err != nil {
			return fmt.Errorf("failed to reload row %s: %w", row.PlanNo, err)
		}
		row = fresh

		if searchNext && row.UnscheduledQty > 0 {
			next, ok, err := b.windows.NextAvailableDate(ctx, repos.Capacity, req.Route.ProcessName, date)
			if err != nil {
				return err
			}
			if ok {
				row.NextScheduleDate = &next
				if err := repos.Schedule.Update(ctx, row); err != nil {
					return fmt.Errorf("failed to record next schedule date on %s: %w", row.PlanNo, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chain step %d for source %s failed: %w", count, req.SourceNo, err)
	}
	return row, nil
}

// RecomputeChain batch-refreshes cumulative and unscheduled quantities for
// every row sharing a sourceNo from a fresh aggregate query. Each row's
// remaining hour balance is recomputed individually from its own fields.
func RecomputeChain(ctx context.Context, repos *repositories.Repositories, sourceNo string) error {
	total, err := repos.Schedule.SumQuantityBySource(ctx, sourceNo)
	if err != nil {
		return fmt.Errorf("failed to aggregate chain %s: %w", sourceNo, err)
	}

	rows, err := repos.Schedule.ListBySource(ctx, sourceNo)
	if err != nil {
		return fmt.Errorf("failed to list chain %s: %w", sourceNo, err)
	}

	for _, row := range rows {
		row.ApplyChainAggregate(total)
		row.RecomputeRemainingHours()
		if err := repos.Schedule.Update(ctx, row); err != nil {
			return fmt.Errorf("failed to update chain row %s: %w", row.PlanNo, err)
		}
	}
	return nil
}
