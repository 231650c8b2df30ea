// Package output renders planning results for the terminal.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/lfeng/aps/pkg/application/dto"
	"github.com/lfeng/aps/pkg/domain/entities"
)

// Renderer writes human-readable planning output.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	headColor = color.New(color.FgCyan, color.Bold)
)

func stateLabel(s entities.ChainState) string {
	switch s {
	case entities.FullyScheduled:
		return okColor.Sprint(s.String())
	case entities.PartiallyScheduled:
		return warnColor.Sprint(s.String())
	default:
		return s.String()
	}
}

// RenderPlanResult prints the full outcome of planning one requirement.
func (r *Renderer) RenderPlanResult(result *dto.PlanResult) {
	headColor.Fprintf(r.w, "Plan for %s\n", result.SourceNo)

	if len(result.Rows) > 0 {
		fmt.Fprintln(r.w, "\nScheduled rows:")
		r.renderRows(result.Rows)
	}

	if len(result.Requirements) > 0 {
		fmt.Fprintln(r.w, "\nMaterial requirements:")
		for _, req := range result.Requirements {
			fmt.Fprintf(r.w, "  %-12s demand=%d stock=%d replenish=%d due=%s\n",
				req.MaterialCode, req.DemandQty, req.AvailableStock,
				req.ReplenishmentQty, entities.DateKey(req.DemandDate))
		}
	}

	if len(result.Procurements) > 0 {
		fmt.Fprintln(r.w, "\nProcurement requests:")
		for _, p := range result.Procurements {
			fmt.Fprintf(r.w, "  %-20s %-12s qty=%d arrive=%s (lead %dd)\n",
				p.ProcurementPlanNo, p.MaterialCode, p.RequiredQuantity,
				entities.DateKey(p.PlanArrivalDate), p.LeadTimeDays)
		}
	}

	for _, item := range result.Unschedulable {
		failColor.Fprintf(r.w, "\nUNSCHEDULABLE %s (%s): %d units unmet: %s\n",
			item.Material, item.Process, item.UnmetQty, item.Reason)
	}

	for _, skip := range result.Skipped {
		warnColor.Fprintf(r.w, "skipped %s (%s): %s\n", skip.Material, skip.Process, skip.Reason)
	}

	if result.Duplicates > 0 {
		fmt.Fprintf(r.w, "\n%d duplicate request(s) ignored\n", result.Duplicates)
	}

	fmt.Fprintln(r.w)
	if result.FullyScheduled() {
		okColor.Fprintln(r.w, "✓ fully scheduled")
	} else {
		warnColor.Fprintln(r.w, "! partially scheduled")
	}
}

// RenderChain prints the rows of one overflow chain.
func (r *Renderer) RenderChain(sourceNo string, rows []*entities.ScheduledRow) {
	headColor.Fprintf(r.w, "Chain %s (%d rows)\n", sourceNo, len(rows))
	r.renderRows(rows)
}

func (r *Renderer) renderRows(rows []*entities.ScheduledRow) {
	for _, row := range rows {
		next := "-"
		if row.NextScheduleDate != nil {
			next = entities.DateKey(*row.NextScheduleDate)
		}
		fmt.Fprintf(r.w, "  %-20s %-12s %-10s %s  hours=%s/%s qty=%d cum=%d/%d next=%s %s\n",
			row.PlanNo, row.ProductCode, row.ProcessName, entities.DateKey(row.ScheduleDate),
			row.ScheduledWorkHours, row.RequiredWorkHours,
			row.ScheduleQuantity, row.CumulativeScheduleQty, row.TargetQty,
			next, stateLabel(row.State))
	}
}

// RenderCapacity prints capacity records for one process.
func (r *Renderer) RenderCapacity(process entities.ProcessName, records []*entities.CapacityRecord) {
	headColor.Fprintf(r.w, "Capacity for %s (%d days)\n", process, len(records))
	for _, rec := range records {
		line := fmt.Sprintf("  %s  shift=%s × %d  occupied=%s  remaining=%s",
			entities.DateKey(rec.Date), rec.ShiftHours, rec.WorkstationCount,
			rec.OccupiedHours, rec.RemainingHours)
		if rec.RemainingHours.IsZero() {
			failColor.Fprintln(r.w, line)
		} else {
			fmt.Fprintln(r.w, line)
		}
	}
}
