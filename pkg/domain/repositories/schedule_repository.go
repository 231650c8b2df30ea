package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lfeng/aps/pkg/domain/entities"
)

// ScheduleRepository stores ScheduledRows. Insert assigns each row a strictly
// increasing creation sequence; all per-day accounting is first-come-first-served
// in that order.
type ScheduleRepository interface {
	Insert(ctx context.Context, row *entities.ScheduledRow) error
	Update(ctx context.Context, row *entities.ScheduledRow) error
	Delete(ctx context.Context, planNo string) error

	// GetByPlanNo returns the row for a plan number, or nil if none exists.
	GetByPlanNo(ctx context.Context, planNo string) (*entities.ScheduledRow, error)

	// ListBySource returns every row of one overflow chain in creation order.
	ListBySource(ctx context.Context, sourceNo string) ([]*entities.ScheduledRow, error)

	// FindBySourceAndProduct returns the first row keyed by (sourceNo,
	// productCode), or nil. This is the idempotency-guard lookup.
	FindBySourceAndProduct(ctx context.Context, sourceNo string, product entities.MaterialCode) (*entities.ScheduledRow, error)

	// SumScheduledHours returns the total scheduled work hours of all rows
	// for a process and day, in creation order semantics.
	SumScheduledHours(ctx context.Context, process entities.ProcessName, date time.Time) (decimal.Decimal, error)

	// SumQuantityBySource returns the chain-wide sum of ScheduleQuantity.
	// Always a fresh aggregate, never a locally incremented counter.
	SumQuantityBySource(ctx context.Context, sourceNo string) (entities.Quantity, error)
}
