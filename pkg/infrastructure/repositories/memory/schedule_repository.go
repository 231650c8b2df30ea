package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// ScheduleRepository is the in-memory scheduled-row store. Rows keep strict
// creation order via an assigned sequence number.
type ScheduleRepository struct {
	store *Store
}

// NewScheduleRepository creates a schedule repository on a shared store.
func NewScheduleRepository(store *Store) *ScheduleRepository {
	return &ScheduleRepository{store: store}
}

var _ repositories.ScheduleRepository = (*ScheduleRepository)(nil)

// Insert stores a new row and assigns its creation sequence.
func (r *ScheduleRepository) Insert(ctx context.Context, row *entities.ScheduledRow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.rowIndex[row.PlanNo]; exists {
		return fmt.Errorf("scheduled row %s already exists", row.PlanNo)
	}

	r.store.nextSeq++
	row.Seq = r.store.nextSeq

	copied := *row
	r.store.rowIndex[copied.PlanNo] = len(r.store.rows)
	r.store.rows = append(r.store.rows, &copied)
	return nil
}

// Update replaces a stored row.
func (r *ScheduleRepository) Update(ctx context.Context, row *entities.ScheduledRow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	idx, exists := r.store.rowIndex[row.PlanNo]
	if !exists {
		return fmt.Errorf("scheduled row %s not found", row.PlanNo)
	}
	copied := *row
	copied.Seq = r.store.rows[idx].Seq
	r.store.rows[idx] = &copied
	return nil
}

// Delete removes a row and reindexes the remainder.
func (r *ScheduleRepository) Delete(ctx context.Context, planNo string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	idx, exists := r.store.rowIndex[planNo]
	if !exists {
		return fmt.Errorf("scheduled row %s not found", planNo)
	}

	r.store.rows = append(r.store.rows[:idx], r.store.rows[idx+1:]...)
	delete(r.store.rowIndex, planNo)
	for i := idx; i < len(r.store.rows); i++ {
		r.store.rowIndex[r.store.rows[i].PlanNo] = i
	}
	return nil
}

// GetByPlanNo returns a copy of the row, or nil if none exists.
func (r *ScheduleRepository) GetByPlanNo(ctx context.Context, planNo string) (*entities.ScheduledRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	idx, exists := r.store.rowIndex[planNo]
	if !exists {
		return nil, nil
	}
	copied := *r.store.rows[idx]
	return &copied, nil
}

// ListBySource returns every row of one chain in creation order.
func (r *ScheduleRepository) ListBySource(ctx context.Context, sourceNo string) ([]*entities.ScheduledRow, error) {
	return r.store.rowsBySource(sourceNo), nil
}

// FindBySourceAndProduct returns the first row for a (source, product) edge,
// or nil.
func (r *ScheduleRepository) FindBySourceAndProduct(ctx context.Context, sourceNo string, product entities.MaterialCode) (*entities.ScheduledRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, row := range r.store.rows {
		if row.SourceNo == sourceNo && row.ProductCode == product {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

// SumScheduledHours totals scheduled work hours of all rows for a
// process-date in creation order.
func (r *ScheduleRepository) SumScheduledHours(ctx context.Context, process entities.ProcessName, date time.Time) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	key := entities.DateKey(date)
	total := decimal.Zero
	for _, row := range r.store.rows {
		if row.ProcessName == process && entities.DateKey(row.ScheduleDate) == key {
			total = total.Add(row.ScheduledWorkHours)
		}
	}
	return total, nil
}

// SumQuantityBySource returns the chain-wide scheduled quantity as a fresh
// aggregate.
func (r *ScheduleRepository) SumQuantityBySource(ctx context.Context, sourceNo string) (entities.Quantity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var total entities.Quantity
	for _, row := range r.store.rows {
		if row.SourceNo == sourceNo {
			total += row.ScheduleQuantity
		}
	}
	return total, nil
}
