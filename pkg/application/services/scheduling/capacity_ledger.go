// Package scheduling contains the capacity-constrained allocation core: the
// capacity ledger, the feasible-date search, the per-day allocation engine,
// and the multi-day overflow chain builder.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// CapacityLedger does per-(process, date) working-hour bookkeeping on top of
// the capacity repository. It is the sole writer of occupied/remaining hours;
// shift hours and workstation counts belong to the capacity-configuration
// collaborator.
type CapacityLedger struct {
	logger *zap.Logger
}

// NewCapacityLedger creates a capacity ledger.
func NewCapacityLedger(logger *zap.Logger) *CapacityLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityLedger{logger: logger}
}

// Query returns the capacity record for a process and day. Process-dates with
// no configured capacity yield a zero-capacity sentinel, not an error.
func (l *CapacityLedger) Query(ctx context.Context, capRepo repositories.CapacityRepository, process entities.ProcessName, date time.Time) (*entities.CapacityRecord, error) {
	rec, err := capRepo.Get(ctx, process, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query capacity for %s on %s: %w", process, entities.DateKey(date), err)
	}
	if rec == nil {
		return entities.ZeroCapacityRecord(process, date), nil
	}
	return rec, nil
}

// Reserve increases occupied hours for a process-date and recomputes the
// remaining balance. Reserving zero hours is a no-op.
func (l *CapacityLedger) Reserve(ctx context.Context, capRepo repositories.CapacityRepository, process entities.ProcessName, date time.Time, hours decimal.Decimal) error {
	if !hours.IsPositive() {
		return nil
	}

	rec, err := capRepo.Get(ctx, process, date)
	if err != nil {
		return fmt.Errorf("failed to load capacity for reserve: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("cannot reserve %s hours: no capacity configured for %s on %s", hours, process, entities.DateKey(date))
	}

	rec.OccupiedHours = rec.OccupiedHours.Add(hours)
	rec.Recompute()

	if err := capRepo.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save capacity for %s on %s: %w", process, entities.DateKey(date), err)
	}
	return nil
}

// Release recomputes occupied hours from scratch by resumming the scheduled
// work hours of all currently active rows for the process-date. The full
// resum, rather than a delta subtraction, self-heals any drift left behind by
// partial failures.
func (l *CapacityLedger) Release(ctx context.Context, capRepo repositories.CapacityRepository, schedRepo repositories.ScheduleRepository, process entities.ProcessName, date time.Time) error {
	rec, err := capRepo.Get(ctx, process, date)
	if err != nil {
		return fmt.Errorf("failed to load capacity for release: %w", err)
	}
	if rec == nil {
		// Nothing to heal: the process-date never had configured capacity.
		return nil
	}

	occupied, err := schedRepo.SumScheduledHours(ctx, process, date)
	if err != nil {
		return fmt.Errorf("failed to resum scheduled hours for %s on %s: %w", process, entities.DateKey(date), err)
	}

	if !rec.OccupiedHours.Equal(occupied) {
		l.logger.Info("capacity resum corrected drift",
			zap.String("process", string(process)),
			zap.String("date", entities.DateKey(date)),
			zap.String("was", rec.OccupiedHours.String()),
			zap.String("now", occupied.String()))
	}

	rec.OccupiedHours = occupied
	rec.Recompute()

	if err := capRepo.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save capacity for %s on %s: %w", process, entities.DateKey(date), err)
	}
	return nil
}
