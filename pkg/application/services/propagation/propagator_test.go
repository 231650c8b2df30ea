package propagation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lfeng/aps/pkg/application/services/scheduling"
	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/services"
	"github.com/lfeng/aps/pkg/infrastructure/repositories/memory"
)

func day(d int) time.Time {
	return time.Date(2026, time.June, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	uow        *memory.UnitOfWork
	bom        *memory.BOMRepository
	stock      *memory.StockRepository
	routing    *memory.RoutingRepository
	propagator *Propagator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	uow := memory.NewUnitOfWork(memory.NewStore())
	bom := memory.NewBOMRepository()
	stock := memory.NewStockRepository()
	routing := memory.NewRoutingRepository()

	ledger := scheduling.NewCapacityLedger(nil)
	planNos := services.NewPlanNumberGenerator()
	alloc := scheduling.NewAllocationEngine(ledger, planNos, nil)
	windows := scheduling.NewDateWindowCalculator(30, nil)
	chains := scheduling.NewOverflowChainBuilder(uow, alloc, windows, 0, nil)
	propagator := NewPropagator(uow, bom, stock, routing, chains, planNos, 0, nil)

	return &fixture{uow: uow, bom: bom, stock: stock, routing: routing, propagator: propagator}
}

func (f *fixture) seedCapacity(t *testing.T, process entities.ProcessName, d time.Time, shiftHours string) {
	t.Helper()
	rec, err := entities.NewCapacityRecord(process, d, dec(shiftHours), 1)
	if err != nil {
		t.Fatalf("Expected valid capacity record: %v", err)
	}
	if err := f.uow.Repos().Capacity.Save(context.Background(), rec); err != nil {
		t.Fatalf("Failed to seed capacity: %v", err)
	}
}

func (f *fixture) addRoute(t *testing.T, process entities.ProcessName, prefix string, unitsPerHour int64) {
	t.Helper()
	route, err := entities.NewProcessRoute(process, string(process)+"_schedule", prefix, decimal.NewFromInt(unitsPerHour), true)
	if err != nil {
		t.Fatalf("Expected valid route: %v", err)
	}
	f.routing.AddRoute(route)
}

// parentRow builds and persists a satisfied parent row to propagate from.
func (f *fixture) parentRow(t *testing.T, id string, product entities.MaterialCode, qty entities.Quantity, d time.Time) *entities.ScheduledRow {
	t.Helper()
	row, err := entities.NewScheduledRow(id, "PK-"+id, "REQ-"+id, product, "packing", d)
	if err != nil {
		t.Fatalf("NewScheduledRow failed: %v", err)
	}
	row.ScheduleQuantity = qty
	row.TargetQty = qty
	row.CustomerOrder = "SO-55"
	row.RequiredWorkHours = dec("1")
	row.ScheduledWorkHours = dec("1")
	if err := f.uow.Repos().Schedule.Insert(context.Background(), row); err != nil {
		t.Fatalf("Insert parent row failed: %v", err)
	}
	return row
}

func buyLink(t *testing.T, code entities.MaterialCode, usage string, leadDays int) *entities.BOMChildLink {
	t.Helper()
	link, err := entities.NewBOMChildLink(code, string(code), dec(usage), "", entities.BuyExternal)
	if err != nil {
		t.Fatalf("NewBOMChildLink failed: %v", err)
	}
	link.LeadTimeDays = leadDays
	return link
}

func makeLink(t *testing.T, code entities.MaterialCode, usage string, process entities.ProcessName) *entities.BOMChildLink {
	t.Helper()
	link, err := entities.NewBOMChildLink(code, string(code), dec(usage), process, entities.MakeInternal)
	if err != nil {
		t.Fatalf("NewBOMChildLink failed: %v", err)
	}
	return link
}

func TestPropagateRow_BuyChildNetsStockIntoProcurement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 50 parents × 2 per parent = 100 demand; 30 in stock leaves 70 to buy.
	f.bom.AddChild("FG-100", buyLink(t, "RM-40", "2", 5))
	f.stock.SetStock("RM-40", 30)
	row := f.parentRow(t, "row1", "FG-100", 50, day(20))

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}

	if len(result.Requirements) != 1 {
		t.Fatalf("Expected 1 requirement, got %d", len(result.Requirements))
	}
	req := result.Requirements[0]
	if req.DemandQty != 100 {
		t.Errorf("Expected demand 100, got %d", req.DemandQty)
	}
	if req.AvailableStock != 30 {
		t.Errorf("Expected 30 available, got %d", req.AvailableStock)
	}
	if req.ReplenishmentQty != 70 {
		t.Errorf("Expected replenishment 70, got %d", req.ReplenishmentQty)
	}
	if req.SourceNo != row.ID {
		t.Errorf("Expected requirement keyed by parent row id %s, got %s", row.ID, req.SourceNo)
	}

	if len(result.Procurements) != 1 {
		t.Fatalf("Expected 1 procurement, got %d", len(result.Procurements))
	}
	proc := result.Procurements[0]
	if proc.RequiredQuantity != 70 {
		t.Errorf("Expected procurement qty 70, got %d", proc.RequiredQuantity)
	}
	if !proc.PlanArrivalDate.Equal(day(15)) {
		t.Errorf("Expected arrival %s (5d lead), got %s", entities.DateKey(day(15)), entities.DateKey(proc.PlanArrivalDate))
	}
	if len(result.Rows) != 0 {
		t.Errorf("Expected no child chains for a bought material, got %d rows", len(result.Rows))
	}
}

func TestPropagateRow_StockCoversDemandEntirely(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bom.AddChild("FG-100", buyLink(t, "RM-40", "1", 0))
	f.stock.SetStock("RM-40", 500)
	row := f.parentRow(t, "row1", "FG-100", 50, day(20))

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}
	if len(result.Requirements) != 0 || len(result.Procurements) != 0 {
		t.Errorf("Expected nothing created when stock covers demand, got %d reqs %d procs",
			len(result.Requirements), len(result.Procurements))
	}
}

func TestPropagateRow_FractionalUsageRoundsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 10 parents × 0.25 = 2.5 → 3 units demanded.
	f.bom.AddChild("FG-100", buyLink(t, "GLUE", "0.25", 0))
	row := f.parentRow(t, "row1", "FG-100", 10, day(20))

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}
	if len(result.Requirements) != 1 {
		t.Fatalf("Expected 1 requirement, got %d", len(result.Requirements))
	}
	if result.Requirements[0].DemandQty != 3 {
		t.Errorf("Expected ceiling demand 3, got %d", result.Requirements[0].DemandQty)
	}
}

func TestPropagateRow_MakeChildSchedulesChildChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bom.AddChild("FG-100", makeLink(t, "SUB-10", "1", "assembly"))
	f.addRoute(t, "assembly", "AS", 10)
	f.seedCapacity(t, "assembly", day(19), "8")
	f.seedCapacity(t, "assembly", day(20), "8")

	row := f.parentRow(t, "row1", "FG-100", 60, day(20))

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}

	if len(result.Requirements) != 1 {
		t.Fatalf("Expected 1 requirement, got %d", len(result.Requirements))
	}
	req := result.Requirements[0]

	if len(result.Rows) != 1 {
		t.Fatalf("Expected 1 child chain row, got %d", len(result.Rows))
	}
	child := result.Rows[0]
	if child.SourceNo != req.ID {
		t.Errorf("Expected child chain keyed by requirement id %s, got %s", req.ID, child.SourceNo)
	}
	if child.ProductCode != "SUB-10" {
		t.Errorf("Expected child product SUB-10, got %s", child.ProductCode)
	}
	// 60 units at 10/hour = 6 hours, fits the 8h day at the due date.
	if !child.ScheduledWorkHours.Equal(dec("6")) {
		t.Errorf("Expected 6 child hours, got %s", child.ScheduledWorkHours)
	}
	if !child.ScheduleDate.Equal(day(20)) {
		t.Errorf("Expected child scheduled on due date, got %s", entities.DateKey(child.ScheduleDate))
	}
	if child.State != entities.FullyScheduled {
		t.Errorf("Expected child FullyScheduled, got %s", child.State)
	}
}

func TestPropagateRow_UnroutableBranchSkipsSiblingContinues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// First child's process is missing from the routing table; the buy
	// sibling must still produce its procurement.
	f.bom.AddChild("FG-100", makeLink(t, "SUB-10", "1", "painting"))
	f.bom.AddChild("FG-100", buyLink(t, "RM-40", "1", 0))
	row := f.parentRow(t, "row1", "FG-100", 10, day(20))

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}

	if len(result.Skipped) != 1 {
		t.Fatalf("Expected 1 skipped branch, got %d", len(result.Skipped))
	}
	if result.Skipped[0].Material != "SUB-10" || result.Skipped[0].Process != "painting" {
		t.Errorf("Unexpected skip: %+v", result.Skipped[0])
	}
	if len(result.Procurements) != 1 {
		t.Errorf("Expected sibling procurement to survive the skip, got %d", len(result.Procurements))
	}
	if len(result.Rows) != 0 {
		t.Errorf("Expected no chain for the skipped branch, got %d rows", len(result.Rows))
	}
}

func TestPropagateRow_SecondPassCreatesNothingNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bom.AddChild("FG-100", makeLink(t, "SUB-10", "1", "assembly"))
	f.bom.AddChild("FG-100", buyLink(t, "RM-40", "2", 3))
	f.addRoute(t, "assembly", "AS", 10)
	f.seedCapacity(t, "assembly", day(20), "8")

	row := f.parentRow(t, "row1", "FG-100", 10, day(20))

	first, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("First PropagateRow failed: %v", err)
	}
	if first.Duplicates != 0 {
		t.Errorf("Expected no duplicates on first pass, got %d", first.Duplicates)
	}

	second, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("Second PropagateRow failed: %v", err)
	}

	if len(second.Rows) != 0 {
		t.Errorf("Expected no new chain rows on second pass, got %d", len(second.Rows))
	}
	if second.Duplicates == 0 {
		t.Error("Expected duplicate hits on second pass")
	}

	// Storage still holds exactly one requirement per child edge.
	reqs, err := f.uow.Repos().Requirement.ListBySource(ctx, row.ID)
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(reqs) != 2 {
		t.Errorf("Expected 2 stored requirements after both passes, got %d", len(reqs))
	}

	procs, err := f.uow.Repos().Procurement.List(ctx)
	if err != nil {
		t.Fatalf("List procurements failed: %v", err)
	}
	if len(procs) != 1 {
		t.Errorf("Expected 1 stored procurement after both passes, got %d", len(procs))
	}
	if procs[0].RequiredQuantity != 20 {
		t.Errorf("Expected procurement qty untouched at 20, got %d", procs[0].RequiredQuantity)
	}
}

func TestPropagateRow_ProcurementsMergePerOrderAndMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two distinct parent products both consume RM-40 for the same order.
	f.bom.AddChild("FG-100", buyLink(t, "RM-40", "1", 5))
	f.bom.AddChild("FG-200", buyLink(t, "RM-40", "1", 5))

	first := f.parentRow(t, "row1", "FG-100", 40, day(20))
	second := f.parentRow(t, "row2", "FG-200", 60, day(18))

	if _, err := f.propagator.PropagateRow(ctx, first); err != nil {
		t.Fatalf("First PropagateRow failed: %v", err)
	}
	if _, err := f.propagator.PropagateRow(ctx, second); err != nil {
		t.Fatalf("Second PropagateRow failed: %v", err)
	}

	procs, err := f.uow.Repos().Procurement.List(ctx)
	if err != nil {
		t.Fatalf("List procurements failed: %v", err)
	}
	if len(procs) != 1 {
		t.Fatalf("Expected merged single procurement, got %d", len(procs))
	}
	if procs[0].RequiredQuantity != 100 {
		t.Errorf("Expected accumulated qty 100, got %d", procs[0].RequiredQuantity)
	}
	// Earliest computed arrival wins: day 18 demand minus 5 days lead.
	if !procs[0].PlanArrivalDate.Equal(day(13)) {
		t.Errorf("Expected arrival %s, got %s", entities.DateKey(day(13)), entities.DateKey(procs[0].PlanArrivalDate))
	}
}

func TestPropagateRow_MultiLevelExplosion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// FG-100 -> SUB-10 (make) -> RM-40 (buy).
	f.bom.AddChild("FG-100", makeLink(t, "SUB-10", "1", "assembly"))
	f.bom.AddChild("SUB-10", buyLink(t, "RM-40", "3", 2))
	f.addRoute(t, "assembly", "AS", 10)
	f.seedCapacity(t, "assembly", day(20), "8")

	row := f.parentRow(t, "row1", "FG-100", 20, day(20))

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}

	if len(result.Rows) != 1 {
		t.Fatalf("Expected 1 child chain row, got %d", len(result.Rows))
	}
	if len(result.Requirements) != 2 {
		t.Fatalf("Expected 2 requirements across levels, got %d", len(result.Requirements))
	}
	if len(result.Procurements) != 1 {
		t.Fatalf("Expected grandchild procurement, got %d", len(result.Procurements))
	}
	// 20 subassemblies × 3 = 60 raw units.
	if result.Procurements[0].RequiredQuantity != 60 {
		t.Errorf("Expected 60 raw units, got %d", result.Procurements[0].RequiredQuantity)
	}
}

func TestPropagateRow_ZeroQuantityRowPropagatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bom.AddChild("FG-100", buyLink(t, "RM-40", "1", 0))
	row := f.parentRow(t, "row1", "FG-100", 0, day(20))

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}
	if len(result.Requirements) != 0 {
		t.Errorf("Expected nothing from a zero-quantity row, got %d requirements", len(result.Requirements))
	}
}

func TestPropagateRow_ExplicitBOMIDOverridesProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bom.AddChild("FG-100", buyLink(t, "WRONG", "1", 0))
	f.bom.AddChild("BOM-ALT", buyLink(t, "RM-40", "1", 0))

	row := f.parentRow(t, "row1", "FG-100", 10, day(20))
	row.BOMID = "BOM-ALT"

	result, err := f.propagator.PropagateRow(ctx, row)
	if err != nil {
		t.Fatalf("PropagateRow failed: %v", err)
	}
	if len(result.Requirements) != 1 || result.Requirements[0].MaterialCode != "RM-40" {
		t.Fatalf("Expected explosion through BOM-ALT only, got %+v", result.Requirements)
	}
}
