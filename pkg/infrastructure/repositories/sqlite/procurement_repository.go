package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// ProcurementRepository implements repositories.ProcurementRepository with
// SQLite. The (customer_order, material_code) unique constraint backs the
// merge semantics at the storage level.
type ProcurementRepository struct {
	q querier
}

// NewProcurementRepository creates a SQLite procurement repository.
func NewProcurementRepository(q querier) *ProcurementRepository {
	return &ProcurementRepository{q: q}
}

var _ repositories.ProcurementRepository = (*ProcurementRepository)(nil)

const procurementColumns = `plan_no, source_requirement_id, customer_order, material_code,
	required_qty, lead_time_days, plan_arrival_date`

// Insert stores a new procurement request.
func (r *ProcurementRepository) Insert(ctx context.Context, req *entities.ProcurementRequest) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO procurement_requests (`+procurementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ProcurementPlanNo, req.SourceRequirementID, req.CustomerOrder,
		string(req.MaterialCode), int64(req.RequiredQuantity), req.LeadTimeDays,
		entities.DateKey(req.PlanArrivalDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert procurement request %s: %w", req.ProcurementPlanNo, err)
	}
	return nil
}

// Update replaces the merged fields of a stored request.
func (r *ProcurementRepository) Update(ctx context.Context, req *entities.ProcurementRequest) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE procurement_requests SET required_qty = ?, plan_arrival_date = ?
		WHERE plan_no = ?`,
		int64(req.RequiredQuantity), entities.DateKey(req.PlanArrivalDate),
		req.ProcurementPlanNo,
	)
	if err != nil {
		return fmt.Errorf("failed to update procurement request %s: %w", req.ProcurementPlanNo, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("procurement request %s not found", req.ProcurementPlanNo)
	}
	return nil
}

// FindByOrderAndMaterial returns the existing request for a customer order
// and material, or nil.
func (r *ProcurementRepository) FindByOrderAndMaterial(ctx context.Context, customerOrder string, material entities.MaterialCode) (*entities.ProcurementRequest, error) {
	req, err := scanProcurement(r.q.QueryRowContext(ctx,
		`SELECT `+procurementColumns+` FROM procurement_requests
		WHERE customer_order = ? AND material_code = ?`,
		customerOrder, string(material)).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

// List returns every procurement request ordered by plan number.
func (r *ProcurementRepository) List(ctx context.Context) ([]*entities.ProcurementRequest, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+procurementColumns+` FROM procurement_requests ORDER BY plan_no`)
	if err != nil {
		return nil, fmt.Errorf("failed to list procurement requests: %w", err)
	}
	defer rows.Close()

	var out []*entities.ProcurementRequest
	for rows.Next() {
		req, err := scanProcurement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan procurement request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanProcurement(scan func(dest ...any) error) (*entities.ProcurementRequest, error) {
	var (
		req      entities.ProcurementRequest
		material string
		quantity int64
		arrival  string
	)
	err := scan(&req.ProcurementPlanNo, &req.SourceRequirementID, &req.CustomerOrder,
		&material, &quantity, &req.LeadTimeDays, &arrival)
	if err != nil {
		return nil, err
	}

	req.MaterialCode = entities.MaterialCode(material)
	req.RequiredQuantity = entities.Quantity(quantity)

	date, err := time.Parse("2006-01-02", arrival)
	if err != nil {
		return nil, fmt.Errorf("corrupt plan_arrival_date %q: %w", arrival, err)
	}
	req.PlanArrivalDate = entities.Day(date)

	return &req, nil
}
