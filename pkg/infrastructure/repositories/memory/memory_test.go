package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

func memDate(day int) time.Time {
	return time.Date(2026, 4, day, 0, 0, 0, 0, time.UTC)
}

func memRow(t *testing.T, planNo, sourceNo string, day int, hours string, qty entities.Quantity) *entities.ScheduledRow {
	t.Helper()
	row, err := entities.NewScheduledRow(uuid.NewString(), planNo, sourceNo, "FG-100", "packing", memDate(day))
	if err != nil {
		t.Fatalf("Failed to create row: %v", err)
	}
	row.RequiredWorkHours = decimal.RequireFromString(hours)
	row.ScheduledWorkHours = decimal.RequireFromString(hours)
	row.ScheduleQuantity = qty
	row.TargetQty = qty
	row.RecomputeRemainingHours()
	return row
}

func TestScheduleRepository_CreationOrderSurvivesEarlierDates(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository(NewStore())

	first := memRow(t, "PK-1", "SO-1", 10, "4", 80)
	second := memRow(t, "PK-2", "SO-1", 5, "2", 40)
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rows, err := repo.ListBySource(ctx, "SO-1")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	// The second row carries an earlier calendar date but was created later.
	if rows[0].PlanNo != "PK-1" || rows[1].PlanNo != "PK-2" {
		t.Errorf("Expected creation order PK-1, PK-2, got %s, %s", rows[0].PlanNo, rows[1].PlanNo)
	}
	if rows[1].Seq <= rows[0].Seq {
		t.Errorf("Expected monotonic sequence, got %d then %d", rows[0].Seq, rows[1].Seq)
	}
}

func TestScheduleRepository_RejectsDuplicatePlanNo(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository(NewStore())

	if err := repo.Insert(ctx, memRow(t, "PK-1", "SO-1", 10, "4", 80)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.Insert(ctx, memRow(t, "PK-1", "SO-2", 11, "2", 40)); err == nil {
		t.Error("Expected duplicate plan number to be rejected")
	}
}

func TestScheduleRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository(NewStore())

	if err := repo.Insert(ctx, memRow(t, "PK-1", "SO-1", 10, "4", 80)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByPlanNo(ctx, "PK-1")
	if err != nil {
		t.Fatalf("GetByPlanNo failed: %v", err)
	}
	got.ScheduleQuantity = 999

	again, err := repo.GetByPlanNo(ctx, "PK-1")
	if err != nil {
		t.Fatalf("GetByPlanNo failed: %v", err)
	}
	if again.ScheduleQuantity != 80 {
		t.Errorf("Expected stored row untouched by caller mutation, got qty %d", again.ScheduleQuantity)
	}
}

func TestScheduleRepository_Sums(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository(NewStore())

	for i, r := range []*entities.ScheduledRow{
		memRow(t, "PK-1", "SO-1", 10, "3.25", 65),
		memRow(t, "PK-2", "SO-1", 10, "4.5", 90),
		memRow(t, "PK-3", "SO-2", 10, "1", 20),
		memRow(t, "PK-4", "SO-1", 11, "2", 40),
	} {
		if err := repo.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	hours, err := repo.SumScheduledHours(ctx, "packing", memDate(10))
	if err != nil {
		t.Fatalf("SumScheduledHours failed: %v", err)
	}
	if !hours.Equal(decimal.RequireFromString("8.75")) {
		t.Errorf("Expected 8.75 hours on the day, got %s", hours)
	}

	qty, err := repo.SumQuantityBySource(ctx, "SO-1")
	if err != nil {
		t.Fatalf("SumQuantityBySource failed: %v", err)
	}
	if qty != 195 {
		t.Errorf("Expected chain quantity 195, got %d", qty)
	}
}

func TestScheduleRepository_DeleteReindexes(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository(NewStore())

	for _, r := range []*entities.ScheduledRow{
		memRow(t, "PK-1", "SO-1", 10, "4", 80),
		memRow(t, "PK-2", "SO-1", 11, "4", 80),
		memRow(t, "PK-3", "SO-1", 12, "4", 80),
	} {
		if err := repo.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	if err := repo.Delete(ctx, "PK-2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "PK-2"); err == nil {
		t.Error("Expected second delete to fail")
	}

	survivor, err := repo.GetByPlanNo(ctx, "PK-3")
	if err != nil {
		t.Fatalf("GetByPlanNo failed: %v", err)
	}
	if survivor == nil {
		t.Fatal("Expected PK-3 to survive reindexing")
	}

	rows, err := repo.ListBySource(ctx, "SO-1")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 surviving rows, got %d", len(rows))
	}
}

func TestCapacityRepository_GetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	repo := NewCapacityRepository(NewStore())

	rec, err := repo.Get(ctx, "packing", memDate(10))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec != nil {
		t.Errorf("Expected nil for unconfigured day, got %+v", rec)
	}
}

func TestCapacityRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewCapacityRepository(NewStore())

	rec, err := entities.NewCapacityRecord("packing", memDate(10), decimal.RequireFromString("8"), 1)
	if err != nil {
		t.Fatalf("NewCapacityRecord failed: %v", err)
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec.OccupiedHours = decimal.RequireFromString("3")
	rec.Recompute()
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "packing", memDate(10))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.RemainingHours.Equal(decimal.RequireFromString("5")) {
		t.Errorf("Expected 5 remaining after upsert, got %s", got.RemainingHours)
	}

	records, err := repo.ListByProcess(ctx, "packing")
	if err != nil {
		t.Fatalf("ListByProcess failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected single record after upsert, got %d", len(records))
	}
}

func TestRequirementRepository_GuardLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewRequirementRepository(NewStore())

	req, err := entities.NewMaterialRequirement(uuid.NewString(), "PK-1", "src-1", "row-1", "RM-1", 100, 30, memDate(20))
	if err != nil {
		t.Fatalf("NewMaterialRequirement failed: %v", err)
	}
	if err := repo.Insert(ctx, req); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	found, err := repo.FindBySourceAndMaterial(ctx, "src-1", "RM-1")
	if err != nil {
		t.Fatalf("FindBySourceAndMaterial failed: %v", err)
	}
	if found == nil || found.ReplenishmentQty != 70 {
		t.Fatalf("Expected replenishment 70, got %+v", found)
	}

	missing, err := repo.FindBySourceAndMaterial(ctx, "src-1", "RM-2")
	if err != nil {
		t.Fatalf("FindBySourceAndMaterial failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown material, got %+v", missing)
	}
}

func TestProcurementRepository_MergeKey(t *testing.T) {
	ctx := context.Background()
	repo := NewProcurementRepository(NewStore())

	req, err := entities.NewProcurementRequest("PUR-1", "req-1", "SO-1", "RM-1", 70, 5, memDate(20))
	if err != nil {
		t.Fatalf("NewProcurementRequest failed: %v", err)
	}
	if err := repo.Insert(ctx, req); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	found, err := repo.FindByOrderAndMaterial(ctx, "SO-1", "RM-1")
	if err != nil {
		t.Fatalf("FindByOrderAndMaterial failed: %v", err)
	}
	if found == nil {
		t.Fatal("Expected existing request for the order-material key")
	}

	found.Merge(30, memDate(12))
	if err := repo.Update(ctx, found); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	again, err := repo.FindByOrderAndMaterial(ctx, "SO-1", "RM-1")
	if err != nil {
		t.Fatalf("FindByOrderAndMaterial failed: %v", err)
	}
	if again.RequiredQuantity != 100 {
		t.Errorf("Expected merged quantity 100, got %d", again.RequiredQuantity)
	}
	if !again.PlanArrivalDate.Equal(memDate(12)) {
		t.Errorf("Expected earliest arrival to win, got %s", again.PlanArrivalDate)
	}
}

func TestUnitOfWork_RollbackRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	uow := NewUnitOfWork(NewStore())

	rec, err := entities.NewCapacityRecord("packing", memDate(10), decimal.RequireFromString("8"), 1)
	if err != nil {
		t.Fatalf("NewCapacityRecord failed: %v", err)
	}
	if err := uow.Repos().Capacity.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	boom := errors.New("boom")
	err = uow.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		if err := repos.Schedule.Insert(ctx, memRow(t, "PK-1", "SO-1", 10, "4", 80)); err != nil {
			return err
		}
		rec.OccupiedHours = decimal.RequireFromString("4")
		rec.Recompute()
		if err := repos.Capacity.Save(ctx, rec); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped boom, got %v", err)
	}

	row, err := uow.Repos().Schedule.GetByPlanNo(ctx, "PK-1")
	if err != nil {
		t.Fatalf("GetByPlanNo failed: %v", err)
	}
	if row != nil {
		t.Error("Expected inserted row rolled back")
	}

	got, err := uow.Repos().Capacity.Get(ctx, "packing", memDate(10))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.OccupiedHours.IsZero() {
		t.Errorf("Expected capacity restored, got %s occupied", got.OccupiedHours)
	}
}

func TestUnitOfWork_CommitKeepsChanges(t *testing.T) {
	ctx := context.Background()
	uow := NewUnitOfWork(NewStore())

	err := uow.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		return repos.Schedule.Insert(ctx, memRow(t, "PK-1", "SO-1", 10, "4", 80))
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}

	row, err := uow.Repos().Schedule.GetByPlanNo(ctx, "PK-1")
	if err != nil {
		t.Fatalf("GetByPlanNo failed: %v", err)
	}
	if row == nil {
		t.Fatal("Expected committed row to persist")
	}
}

func TestBOMRepository_ChildrenAndStock(t *testing.T) {
	ctx := context.Background()

	bom := NewBOMRepository()
	link, err := entities.NewBOMChildLink("RM-1", "raw", decimal.NewFromInt(2), "", entities.BuyExternal)
	if err != nil {
		t.Fatalf("NewBOMChildLink failed: %v", err)
	}
	bom.AddChild("FG-100", link)

	children, err := bom.GetChildren(ctx, "FG-100")
	if err != nil {
		t.Fatalf("GetChildren failed: %v", err)
	}
	if len(children) != 1 || children[0].ChildCode != "RM-1" {
		t.Fatalf("Expected single RM-1 child, got %+v", children)
	}

	empty, err := bom.GetChildren(ctx, "FG-999")
	if err != nil {
		t.Fatalf("GetChildren failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected leaf material to have no children, got %d", len(empty))
	}

	stock := NewStockRepository()
	stock.SetStock("RM-1", 45)
	qty, err := stock.GetAvailableStock(ctx, "RM-1")
	if err != nil {
		t.Fatalf("GetAvailableStock failed: %v", err)
	}
	if qty != 45 {
		t.Errorf("Expected stock 45, got %d", qty)
	}
	missing, err := stock.GetAvailableStock(ctx, "RM-2")
	if err != nil {
		t.Fatalf("GetAvailableStock failed: %v", err)
	}
	if missing != 0 {
		t.Errorf("Expected zero stock for unknown material, got %d", missing)
	}
}

func TestRoutingRepository_GetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	routing := NewRoutingRepository()

	route, err := entities.NewProcessRoute("packing", "packing_schedule", "PK", decimal.NewFromInt(20), true)
	if err != nil {
		t.Fatalf("NewProcessRoute failed: %v", err)
	}
	routing.AddRoute(route)

	got, err := routing.Get(ctx, "packing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.CodePrefix != "PK" {
		t.Fatalf("Expected packing route, got %+v", got)
	}

	missing, err := routing.Get(ctx, "painting")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unrouted process, got %+v", missing)
	}
}
