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

// ScheduleRepository implements repositories.ScheduleRepository with SQLite.
// The AUTOINCREMENT seq column provides strict creation order.
type ScheduleRepository struct {
	q querier
}

// NewScheduleRepository creates a SQLite schedule repository.
func NewScheduleRepository(q querier) *ScheduleRepository {
	return &ScheduleRepository{q: q}
}

var _ repositories.ScheduleRepository = (*ScheduleRepository)(nil)

const rowColumns = `seq, id, plan_no, source_no, product_code, bom_id, process, schedule_date,
	required_hours, daily_total_hours, daily_before_hours, scheduled_hours, remaining_hours,
	schedule_qty, target_qty, cumulative_qty, unscheduled_qty,
	next_schedule_date, previous_plan_no, schedule_count, customer_order, state`

// Insert stores a new row; the database assigns its creation sequence.
func (r *ScheduleRepository) Insert(ctx context.Context, row *entities.ScheduledRow) error {
	var nextDate any
	if row.NextScheduleDate != nil {
		nextDate = entities.DateKey(*row.NextScheduleDate)
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO scheduled_rows (id, plan_no, source_no, product_code, bom_id, process, schedule_date,
			required_hours, daily_total_hours, daily_before_hours, scheduled_hours, remaining_hours,
			schedule_qty, target_qty, cumulative_qty, unscheduled_qty,
			next_schedule_date, previous_plan_no, schedule_count, customer_order, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.PlanNo, row.SourceNo, string(row.ProductCode), row.BOMID,
		string(row.ProcessName), entities.DateKey(row.ScheduleDate),
		row.RequiredWorkHours.String(), row.DailyTotalHours.String(),
		row.DailyScheduledHoursBefore.String(), row.ScheduledWorkHours.String(),
		row.RemainingRequiredHours.String(),
		int64(row.ScheduleQuantity), int64(row.TargetQty),
		int64(row.CumulativeScheduleQty), int64(row.UnscheduledQty),
		nextDate, row.PreviousScheduleNo, row.ScheduleCount, row.CustomerOrder, int(row.State),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scheduled row %s: %w", row.PlanNo, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read row sequence: %w", err)
	}
	row.Seq = seq
	return nil
}

// Update replaces the mutable fields of a stored row.
func (r *ScheduleRepository) Update(ctx context.Context, row *entities.ScheduledRow) error {
	var nextDate any
	if row.NextScheduleDate != nil {
		nextDate = entities.DateKey(*row.NextScheduleDate)
	}

	res, err := r.q.ExecContext(ctx,
		`UPDATE scheduled_rows SET
			required_hours = ?, daily_total_hours = ?, daily_before_hours = ?,
			scheduled_hours = ?, remaining_hours = ?,
			schedule_qty = ?, target_qty = ?, cumulative_qty = ?, unscheduled_qty = ?,
			next_schedule_date = ?, previous_plan_no = ?, schedule_count = ?, state = ?
		WHERE plan_no = ?`,
		row.RequiredWorkHours.String(), row.DailyTotalHours.String(),
		row.DailyScheduledHoursBefore.String(), row.ScheduledWorkHours.String(),
		row.RemainingRequiredHours.String(),
		int64(row.ScheduleQuantity), int64(row.TargetQty),
		int64(row.CumulativeScheduleQty), int64(row.UnscheduledQty),
		nextDate, row.PreviousScheduleNo, row.ScheduleCount, int(row.State),
		row.PlanNo,
	)
	if err != nil {
		return fmt.Errorf("failed to update scheduled row %s: %w", row.PlanNo, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("scheduled row %s not found", row.PlanNo)
	}
	return nil
}

// Delete removes a row.
func (r *ScheduleRepository) Delete(ctx context.Context, planNo string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM scheduled_rows WHERE plan_no = ?`, planNo)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled row %s: %w", planNo, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("scheduled row %s not found", planNo)
	}
	return nil
}

// GetByPlanNo returns the row for a plan number, or nil if none exists.
func (r *ScheduleRepository) GetByPlanNo(ctx context.Context, planNo string) (*entities.ScheduledRow, error) {
	row, err := scanRow(r.q.QueryRowContext(ctx,
		`SELECT `+rowColumns+` FROM scheduled_rows WHERE plan_no = ?`, planNo))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return row, err
}

// ListBySource returns every row of one chain in creation order.
func (r *ScheduleRepository) ListBySource(ctx context.Context, sourceNo string) ([]*entities.ScheduledRow, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+rowColumns+` FROM scheduled_rows WHERE source_no = ? ORDER BY seq`, sourceNo)
	if err != nil {
		return nil, fmt.Errorf("failed to list chain %s: %w", sourceNo, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// FindBySourceAndProduct returns the first row for a (source, product) edge,
// or nil.
func (r *ScheduleRepository) FindBySourceAndProduct(ctx context.Context, sourceNo string, product entities.MaterialCode) (*entities.ScheduledRow, error) {
	row, err := scanRow(r.q.QueryRowContext(ctx,
		`SELECT `+rowColumns+` FROM scheduled_rows
		WHERE source_no = ? AND product_code = ? ORDER BY seq LIMIT 1`,
		sourceNo, string(product)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return row, err
}

// SumScheduledHours totals scheduled work hours for a process-date. Hour
// values are stored as decimal text, so the sum happens in Go.
func (r *ScheduleRepository) SumScheduledHours(ctx context.Context, process entities.ProcessName, date time.Time) (decimal.Decimal, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT scheduled_hours FROM scheduled_rows
		WHERE process = ? AND schedule_date = ? ORDER BY seq`,
		string(process), entities.DateKey(date))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum scheduled hours: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var hours string
		if err := rows.Scan(&hours); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan scheduled hours: %w", err)
		}
		d, err := decimal.NewFromString(hours)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt scheduled_hours %q: %w", hours, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// SumQuantityBySource returns the chain-wide scheduled quantity.
func (r *ScheduleRepository) SumQuantityBySource(ctx context.Context, sourceNo string) (entities.Quantity, error) {
	var total int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(schedule_qty), 0) FROM scheduled_rows WHERE source_no = ?`,
		sourceNo,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate chain %s: %w", sourceNo, err)
	}
	return entities.Quantity(total), nil
}

func scanRow(row *sql.Row) (*entities.ScheduledRow, error) {
	var (
		out          entities.ScheduledRow
		product      string
		process      string
		scheduleDate string
		required     string
		dailyTotal   string
		dailyBefore  string
		scheduled    string
		remaining    string
		scheduleQty  int64
		targetQty    int64
		cumulative   int64
		unscheduled  int64
		nextDate     sql.NullString
		state        int
	)
	err := row.Scan(&out.Seq, &out.ID, &out.PlanNo, &out.SourceNo, &product, &out.BOMID,
		&process, &scheduleDate, &required, &dailyTotal, &dailyBefore, &scheduled, &remaining,
		&scheduleQty, &targetQty, &cumulative, &unscheduled,
		&nextDate, &out.PreviousScheduleNo, &out.ScheduleCount, &out.CustomerOrder, &state)
	if err != nil {
		return nil, err
	}
	return hydrateRow(&out, product, process, scheduleDate, required, dailyTotal, dailyBefore,
		scheduled, remaining, scheduleQty, targetQty, cumulative, unscheduled, nextDate, state)
}

func scanRows(rows *sql.Rows) ([]*entities.ScheduledRow, error) {
	var out []*entities.ScheduledRow
	for rows.Next() {
		var (
			row          entities.ScheduledRow
			product      string
			process      string
			scheduleDate string
			required     string
			dailyTotal   string
			dailyBefore  string
			scheduled    string
			remaining    string
			scheduleQty  int64
			targetQty    int64
			cumulative   int64
			unscheduled  int64
			nextDate     sql.NullString
			state        int
		)
		err := rows.Scan(&row.Seq, &row.ID, &row.PlanNo, &row.SourceNo, &product, &row.BOMID,
			&process, &scheduleDate, &required, &dailyTotal, &dailyBefore, &scheduled, &remaining,
			&scheduleQty, &targetQty, &cumulative, &unscheduled,
			&nextDate, &row.PreviousScheduleNo, &row.ScheduleCount, &row.CustomerOrder, &state)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled row: %w", err)
		}
		hydrated, err := hydrateRow(&row, product, process, scheduleDate, required, dailyTotal,
			dailyBefore, scheduled, remaining, scheduleQty, targetQty, cumulative, unscheduled, nextDate, state)
		if err != nil {
			return nil, err
		}
		out = append(out, hydrated)
	}
	return out, rows.Err()
}

func hydrateRow(row *entities.ScheduledRow, product, process, scheduleDate, required, dailyTotal,
	dailyBefore, scheduled, remaining string, scheduleQty, targetQty, cumulative, unscheduled int64,
	nextDate sql.NullString, state int) (*entities.ScheduledRow, error) {

	row.ProductCode = entities.MaterialCode(product)
	row.ProcessName = entities.ProcessName(process)
	row.ScheduleQuantity = entities.Quantity(scheduleQty)
	row.TargetQty = entities.Quantity(targetQty)
	row.CumulativeScheduleQty = entities.Quantity(cumulative)
	row.UnscheduledQty = entities.Quantity(unscheduled)
	row.State = entities.ChainState(state)

	date, err := time.Parse("2006-01-02", scheduleDate)
	if err != nil {
		return nil, fmt.Errorf("corrupt schedule_date %q: %w", scheduleDate, err)
	}
	row.ScheduleDate = entities.Day(date)

	if nextDate.Valid {
		next, err := time.Parse("2006-01-02", nextDate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt next_schedule_date %q: %w", nextDate.String, err)
		}
		d := entities.Day(next)
		row.NextScheduleDate = &d
	}

	for _, field := range []struct {
		dst *decimal.Decimal
		src string
		col string
	}{
		{&row.RequiredWorkHours, required, "required_hours"},
		{&row.DailyTotalHours, dailyTotal, "daily_total_hours"},
		{&row.DailyScheduledHoursBefore, dailyBefore, "daily_before_hours"},
		{&row.ScheduledWorkHours, scheduled, "scheduled_hours"},
		{&row.RemainingRequiredHours, remaining, "remaining_hours"},
	} {
		d, err := decimal.NewFromString(field.src)
		if err != nil {
			return nil, fmt.Errorf("corrupt %s %q: %w", field.col, field.src, err)
		}
		*field.dst = d
	}

	return row, nil
}
