package repositories

import (
	"context"
	"time"

	"github.com/lfeng/aps/pkg/domain/entities"
)

// CapacityRepository provides access to per-(process, date) capacity records.
// Records themselves are created by the capacity-configuration collaborator;
// the scheduling core only updates occupancy.
type CapacityRepository interface {
	// Get returns the record for a process and day, or nil if none is
	// configured. A missing record means zero capacity, not an error.
	Get(ctx context.Context, process entities.ProcessName, date time.Time) (*entities.CapacityRecord, error)

	// Save upserts a capacity record.
	Save(ctx context.Context, record *entities.CapacityRecord) error

	// ListByProcess returns all records for a process ordered by date.
	ListByProcess(ctx context.Context, process entities.ProcessName) ([]*entities.CapacityRecord, error)
}
