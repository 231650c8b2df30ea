package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// RequirementRepository implements repositories.RequirementRepository with
// SQLite.
type RequirementRepository struct {
	q querier
}

// NewRequirementRepository creates a SQLite requirement repository.
func NewRequirementRepository(q querier) *RequirementRepository {
	return &RequirementRepository{q: q}
}

var _ repositories.RequirementRepository = (*RequirementRepository)(nil)

const requirementColumns = `id, plan_no, source_no, parent_row_id, material_code,
	demand_qty, available_qty, replenishment_qty, source_process, customer_order, demand_date`

// Insert stores a new material requirement.
func (r *RequirementRepository) Insert(ctx context.Context, req *entities.MaterialRequirement) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO material_requirements (`+requirementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.PlanNo, req.SourceNo, req.ParentRowID, string(req.MaterialCode),
		int64(req.DemandQty), int64(req.AvailableStock), int64(req.ReplenishmentQty),
		string(req.SourceProcess), req.CustomerOrder, entities.DateKey(req.DemandDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert material requirement %s: %w", req.ID, err)
	}
	return nil
}

// GetByID returns the requirement with the given id, or nil.
func (r *RequirementRepository) GetByID(ctx context.Context, id string) (*entities.MaterialRequirement, error) {
	req, err := scanRequirement(r.q.QueryRowContext(ctx,
		`SELECT `+requirementColumns+` FROM material_requirements WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

// FindBySourceAndMaterial returns the existing requirement for a
// (parent source, child material) edge, or nil.
func (r *RequirementRepository) FindBySourceAndMaterial(ctx context.Context, sourceNo string, material entities.MaterialCode) (*entities.MaterialRequirement, error) {
	req, err := scanRequirement(r.q.QueryRowContext(ctx,
		`SELECT `+requirementColumns+` FROM material_requirements
		WHERE source_no = ? AND material_code = ? LIMIT 1`,
		sourceNo, string(material)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

// ListBySource returns all requirements exploded from one parent source.
func (r *RequirementRepository) ListBySource(ctx context.Context, sourceNo string) ([]*entities.MaterialRequirement, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+requirementColumns+` FROM material_requirements
		WHERE source_no = ? ORDER BY id`, sourceNo)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements for %s: %w", sourceNo, err)
	}
	defer rows.Close()

	var out []*entities.MaterialRequirement
	for rows.Next() {
		req, err := scanRequirementFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material requirement: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequirement(row *sql.Row) (*entities.MaterialRequirement, error) {
	return scanRequirementFrom(row.Scan)
}

func scanRequirementFrom(scan func(dest ...any) error) (*entities.MaterialRequirement, error) {
	var (
		req        entities.MaterialRequirement
		material   string
		demand     int64
		available  int64
		replenish  int64
		process    string
		demandDate string
	)
	err := scan(&req.ID, &req.PlanNo, &req.SourceNo, &req.ParentRowID, &material,
		&demand, &available, &replenish, &process, &req.CustomerOrder, &demandDate)
	if err != nil {
		return nil, err
	}

	req.MaterialCode = entities.MaterialCode(material)
	req.DemandQty = entities.Quantity(demand)
	req.AvailableStock = entities.Quantity(available)
	req.ReplenishmentQty = entities.Quantity(replenish)
	req.SourceProcess = entities.ProcessName(process)

	date, err := time.Parse("2006-01-02", demandDate)
	if err != nil {
		return nil, fmt.Errorf("corrupt demand_date %q: %w", demandDate, err)
	}
	req.DemandDate = entities.Day(date)

	return &req, nil
}
