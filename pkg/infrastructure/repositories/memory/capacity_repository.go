package memory

import (
	"context"
	"sort"
	"time"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// CapacityRepository is the in-memory capacity store.
type CapacityRepository struct {
	store *Store
}

// NewCapacityRepository creates a capacity repository on a shared store.
func NewCapacityRepository(store *Store) *CapacityRepository {
	return &CapacityRepository{store: store}
}

var _ repositories.CapacityRepository = (*CapacityRepository)(nil)

// Get returns the record for a process-date, or nil if none is configured.
func (r *CapacityRepository) Get(ctx context.Context, process entities.ProcessName, date time.Time) (*entities.CapacityRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.capacity[capacityKey(process, entities.DateKey(date))]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

// Save upserts a capacity record.
func (r *CapacityRepository) Save(ctx context.Context, record *entities.CapacityRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec := *record
	r.store.capacity[capacityKey(rec.ProcessName, entities.DateKey(rec.Date))] = &rec
	return nil
}

// ListByProcess returns all records for a process ordered by date.
func (r *CapacityRepository) ListByProcess(ctx context.Context, process entities.ProcessName) ([]*entities.CapacityRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.CapacityRecord
	for _, rec := range r.store.capacity {
		if rec.ProcessName == process {
			copied := *rec
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
