package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// CapacityRepository implements repositories.CapacityRepository with SQLite.
type CapacityRepository struct {
	q querier
}

// NewCapacityRepository creates a SQLite capacity repository.
func NewCapacityRepository(q querier) *CapacityRepository {
	return &CapacityRepository{q: q}
}

var _ repositories.CapacityRepository = (*CapacityRepository)(nil)

// Get returns the record for a process-date, or nil if none is configured.
func (r *CapacityRepository) Get(ctx context.Context, process entities.ProcessName, date time.Time) (*entities.CapacityRecord, error) {
	var (
		shiftHours    string
		workstations  int
		occupiedHours string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT shift_hours, workstations, occupied_hours
		FROM capacity_records WHERE process = ? AND date = ?`,
		string(process), entities.DateKey(date),
	).Scan(&shiftHours, &workstations, &occupiedHours)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capacity record: %w", err)
	}

	shift, err := decimal.NewFromString(shiftHours)
	if err != nil {
		return nil, fmt.Errorf("corrupt shift_hours %q: %w", shiftHours, err)
	}
	occupied, err := decimal.NewFromString(occupiedHours)
	if err != nil {
		return nil, fmt.Errorf("corrupt occupied_hours %q: %w", occupiedHours, err)
	}

	rec := &entities.CapacityRecord{
		ProcessName:      process,
		Date:             entities.Day(date),
		ShiftHours:       shift,
		WorkstationCount: workstations,
		OccupiedHours:    occupied,
	}
	rec.Recompute()
	return rec, nil
}

// Save upserts a capacity record.
func (r *CapacityRepository) Save(ctx context.Context, record *entities.CapacityRecord) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO capacity_records (process, date, shift_hours, workstations, occupied_hours, remaining_hours)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (process, date) DO UPDATE SET
			shift_hours = excluded.shift_hours,
			workstations = excluded.workstations,
			occupied_hours = excluded.occupied_hours,
			remaining_hours = excluded.remaining_hours`,
		string(record.ProcessName), entities.DateKey(record.Date),
		record.ShiftHours.String(), record.WorkstationCount,
		record.OccupiedHours.String(), record.RemainingHours.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save capacity record: %w", err)
	}
	return nil
}

// ListByProcess returns all records for a process ordered by date.
func (r *CapacityRepository) ListByProcess(ctx context.Context, process entities.ProcessName) ([]*entities.CapacityRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT date, shift_hours, workstations, occupied_hours
		FROM capacity_records WHERE process = ? ORDER BY date`,
		string(process),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list capacity records: %w", err)
	}
	defer rows.Close()

	var out []*entities.CapacityRecord
	for rows.Next() {
		var (
			dateStr       string
			shiftHours    string
			workstations  int
			occupiedHours string
		)
		if err := rows.Scan(&dateStr, &shiftHours, &workstations, &occupiedHours); err != nil {
			return nil, fmt.Errorf("failed to scan capacity record: %w", err)
		}

		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q: %w", dateStr, err)
		}
		shift, err := decimal.NewFromString(shiftHours)
		if err != nil {
			return nil, fmt.Errorf("corrupt shift_hours %q: %w", shiftHours, err)
		}
		occupied, err := decimal.NewFromString(occupiedHours)
		if err != nil {
			return nil, fmt.Errorf("corrupt occupied_hours %q: %w", occupiedHours, err)
		}

		rec := &entities.CapacityRecord{
			ProcessName:      process,
			Date:             entities.Day(date),
			ShiftHours:       shift,
			WorkstationCount: workstations,
			OccupiedHours:    occupied,
		}
		rec.Recompute()
		out = append(out, rec)
	}
	return out, rows.Err()
}
