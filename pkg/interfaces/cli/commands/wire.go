package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appservices "github.com/lfeng/aps/pkg/application/services"
	"github.com/lfeng/aps/pkg/application/services/propagation"
	"github.com/lfeng/aps/pkg/application/services/scheduling"
	"github.com/lfeng/aps/pkg/domain/repositories"
	"github.com/lfeng/aps/pkg/domain/services"
	"github.com/lfeng/aps/pkg/infrastructure/config"
	"github.com/lfeng/aps/pkg/infrastructure/logging"
	"github.com/lfeng/aps/pkg/infrastructure/repositories/csv"
	"github.com/lfeng/aps/pkg/infrastructure/repositories/memory"
	"github.com/lfeng/aps/pkg/infrastructure/repositories/sqlite"
)

// seedFiles are optional CSV files loaded before a command runs. BOM,
// routing, and stock are read-only reference data and always come from CSV;
// capacity seeds into whichever backend the config selects.
type seedFiles struct {
	capacity string
	bom      string
	routes   string
	stock    string
}

// app bundles everything a command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	uow     repositories.UnitOfWork
	routing *memory.RoutingRepository
	ledger  *scheduling.CapacityLedger
	planner *appservices.PlannerService

	db *sql.DB
}

// newApp loads configuration, builds the persistence backend, loads seed
// data, and wires the planning services.
func newApp(ctx context.Context, seed seedFiles) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	switch cfg.Database.Backend {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.uow = sqlite.NewUnitOfWork(db)
	default:
		a.uow = memory.NewUnitOfWork(memory.NewStore())
	}

	bom := memory.NewBOMRepository()
	stock := memory.NewStockRepository()
	a.routing = memory.NewRoutingRepository()

	if err := a.loadSeeds(ctx, seed, bom, stock); err != nil {
		a.Close()
		return nil, err
	}

	a.ledger = scheduling.NewCapacityLedger(logger)
	planNos := services.NewPlanNumberGenerator()
	alloc := scheduling.NewAllocationEngine(a.ledger, planNos, logger)
	windows := scheduling.NewDateWindowCalculator(cfg.Planning.SearchBoundDays, logger)
	chains := scheduling.NewOverflowChainBuilder(a.uow, alloc, windows, cfg.Planning.ChainDepthBound, logger)
	propagator := propagation.NewPropagator(a.uow, bom, stock, a.routing, chains, planNos, cfg.Planning.ExplosionDepthBound, logger)
	a.planner = appservices.NewPlannerService(a.uow, a.routing, a.ledger, chains, propagator, logger)

	return a, nil
}

func (a *app) loadSeeds(ctx context.Context, seed seedFiles, bom *memory.BOMRepository, stock *memory.StockRepository) error {
	loader := csv.NewLoader()

	if seed.bom != "" {
		lines, err := loader.LoadBOM(seed.bom)
		if err != nil {
			return err
		}
		for _, line := range lines {
			bom.AddChild(line.ParentKey, line.Link)
		}
	}

	if seed.stock != "" {
		lines, err := loader.LoadStock(seed.stock)
		if err != nil {
			return err
		}
		for _, line := range lines {
			stock.SetStock(line.Material, line.Quantity)
		}
	}

	if seed.routes != "" {
		routes, err := loader.LoadRoutes(seed.routes)
		if err != nil {
			return err
		}
		defaultMin, err := decimal.NewFromString(a.cfg.Planning.MinRemainingHours)
		if err != nil {
			return fmt.Errorf("invalid planning.min_remaining_hours %q: %w", a.cfg.Planning.MinRemainingHours, err)
		}
		for _, route := range routes {
			if route.MinRemaining.IsZero() {
				route.MinRemaining = defaultMin
			}
			a.routing.AddRoute(route)
		}
	}

	if seed.capacity != "" {
		records, err := loader.LoadCapacity(seed.capacity)
		if err != nil {
			return err
		}
		capRepo := a.uow.Repos().Capacity
		for _, rec := range records {
			if err := capRepo.Save(ctx, rec); err != nil {
				return err
			}
		}
	}

	return nil
}

// Close releases the backend.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}
