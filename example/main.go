package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appservices "github.com/lfeng/aps/pkg/application/services"
	"github.com/lfeng/aps/pkg/application/services/propagation"
	"github.com/lfeng/aps/pkg/application/services/scheduling"
	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/services"
	"github.com/lfeng/aps/pkg/infrastructure/repositories/memory"
	"github.com/lfeng/aps/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Reference data: a two-level furniture BOM.
	bom := memory.NewBOMRepository()
	stock := memory.NewStockRepository()
	routing := memory.NewRoutingRepository()
	setupFurnitureData(bom, stock, routing)

	// Persistence: in-memory store with snapshot transactions.
	uow := memory.NewUnitOfWork(memory.NewStore())

	// Capacity calendar: one packing line, two assembly stations, 8h shifts.
	seedCapacity(ctx, uow, "packing", 8, 1, 10)
	seedCapacity(ctx, uow, "assembly", 8, 2, 10)

	// Planning services.
	ledger := scheduling.NewCapacityLedger(logger)
	planNos := services.NewPlanNumberGenerator()
	alloc := scheduling.NewAllocationEngine(ledger, planNos, logger)
	windows := scheduling.NewDateWindowCalculator(365, logger)
	chains := scheduling.NewOverflowChainBuilder(uow, alloc, windows, 100, logger)
	propagator := propagation.NewPropagator(uow, bom, stock, routing, chains, planNos, 100, logger)
	planner := appservices.NewPlannerService(uow, routing, ledger, chains, propagator, logger)

	due := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	req, err := entities.NewRequirement("SO-1001", "DESK-OAK", 200, due, "packing")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad requirement: %v\n", err)
		os.Exit(1)
	}
	req.CustomerOrder = "SO-1001"

	result, err := planner.PlanRequirement(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "planning failed: %v\n", err)
		os.Exit(1)
	}

	output.NewRenderer(os.Stdout).RenderPlanResult(result)
}

// setupFurnitureData builds the demo BOM:
//
//	DESK-OAK (packed)
//	├── DESKTOP-OAK  make, assembly, 1 per desk
//	│   └── OAK-PANEL  buy, 2 per top, 45 in stock, 7d lead
//	└── LEG-SET      buy, 1 per desk, 30 in stock, 14d lead
func setupFurnitureData(bom *memory.BOMRepository, stock *memory.StockRepository, routing *memory.RoutingRepository) {
	top, _ := entities.NewBOMChildLink("DESKTOP-OAK", "Oak desktop", decimal.NewFromInt(1), "assembly", entities.MakeInternal)
	legs, _ := entities.NewBOMChildLink("LEG-SET", "Steel leg set", decimal.NewFromInt(1), "", entities.BuyExternal)
	legs.LeadTimeDays = 14
	panel, _ := entities.NewBOMChildLink("OAK-PANEL", "Raw oak panel", decimal.NewFromInt(2), "", entities.BuyExternal)
	panel.LeadTimeDays = 7

	bom.AddChild("DESK-OAK", top)
	bom.AddChild("DESK-OAK", legs)
	bom.AddChild("DESKTOP-OAK", panel)

	stock.SetStock("LEG-SET", 30)
	stock.SetStock("OAK-PANEL", 45)

	packing, _ := entities.NewProcessRoute("packing", "packing_schedule", "PK", decimal.NewFromInt(25), true)
	assembly, _ := entities.NewProcessRoute("assembly", "assembly_schedule", "AS", decimal.NewFromInt(10), true)
	routing.AddRoute(packing)
	routing.AddRoute(assembly)
}

func seedCapacity(ctx context.Context, uow *memory.UnitOfWork, process entities.ProcessName, shiftHours int64, workstations, days int) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		rec, err := entities.NewCapacityRecord(process, start.AddDate(0, 0, i), decimal.NewFromInt(shiftHours), workstations)
		if err != nil {
			panic(err)
		}
		if err := uow.Repos().Capacity.Save(ctx, rec); err != nil {
			panic(err)
		}
	}
}
