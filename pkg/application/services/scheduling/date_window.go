package scheduling

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// DefaultSearchBoundDays bounds every calendar walk. Exhausting it is a
// surfaced CapacityExhaustedError, never a silent stop.
const DefaultSearchBoundDays = 365

// DateWindowCalculator searches the capacity calendar for feasible start and
// end dates. Days without a capacity record (weekends, holidays) contribute
// zero hours and are skipped without error.
type DateWindowCalculator struct {
	boundDays int
	logger    *zap.Logger
}

// NewDateWindowCalculator creates a calculator with the given search bound in
// days; a non-positive bound falls back to the default.
func NewDateWindowCalculator(boundDays int, logger *zap.Logger) *DateWindowCalculator {
	if boundDays <= 0 {
		boundDays = DefaultSearchBoundDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DateWindowCalculator{boundDays: boundDays, logger: logger}
}

// BoundDays returns the calculator's search bound.
func (c *DateWindowCalculator) BoundDays() int {
	return c.boundDays
}

// FindEndDate walks forward from startDate accumulating each day's free hours
// (capped at the day's total capacity) and returns the first date at which
// the running total reaches requiredHours.
func (c *DateWindowCalculator) FindEndDate(ctx context.Context, capRepo repositories.CapacityRepository, process entities.ProcessName, requiredHours decimal.Decimal, startDate time.Time) (time.Time, error) {
	if !requiredHours.IsPositive() {
		return entities.Day(startDate), nil
	}

	running := decimal.Zero
	day := entities.Day(startDate)

	for i := 0; i < c.boundDays; i++ {
		rec, err := capRepo.Get(ctx, process, day)
		if err != nil {
			return time.Time{}, err
		}
		if rec != nil {
			free := rec.RemainingHours
			if total := rec.TotalHours(); free.GreaterThan(total) {
				free = total
			}
			running = running.Add(free)
			if running.GreaterThanOrEqual(requiredHours) {
				return day, nil
			}
		}
		day = entities.NextDay(day)
	}

	return time.Time{}, &entities.CapacityExhaustedError{
		Process:       process,
		RequiredHours: requiredHours.String(),
		From:          entities.Day(startDate),
		BoundDays:     c.boundDays,
	}
}

// FindStartDate searches backward from endDate for the latest date whose
// remaining hours exceed minRemaining: a just-in-time pull policy rather than
// earliest-possible-start. The boolean is false when no such date exists
// within the search bound.
func (c *DateWindowCalculator) FindStartDate(ctx context.Context, capRepo repositories.CapacityRepository, process entities.ProcessName, endDate time.Time, minRemaining decimal.Decimal) (time.Time, bool, error) {
	day := entities.Day(endDate)

	for i := 0; i < c.boundDays; i++ {
		rec, err := capRepo.Get(ctx, process, day)
		if err != nil {
			return time.Time{}, false, err
		}
		if rec != nil && rec.RemainingHours.GreaterThan(minRemaining) {
			return day, true, nil
		}
		day = day.AddDate(0, 0, -1)
	}

	return time.Time{}, false, nil
}

// NextAvailableDate returns the first date strictly after the given day with
// any remaining hours, bounded by the search window. The boolean is false
// when every day within the bound is fully booked or unconfigured.
func (c *DateWindowCalculator) NextAvailableDate(ctx context.Context, capRepo repositories.CapacityRepository, process entities.ProcessName, after time.Time) (time.Time, bool, error) {
	day := entities.NextDay(after)

	for i := 0; i < c.boundDays; i++ {
		rec, err := capRepo.Get(ctx, process, day)
		if err != nil {
			return time.Time{}, false, err
		}
		if rec != nil && rec.RemainingHours.IsPositive() {
			return day, true, nil
		}
		day = entities.NextDay(day)
	}

	return time.Time{}, false, nil
}
