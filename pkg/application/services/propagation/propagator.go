package propagation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lfeng/aps/pkg/application/services/scheduling"
	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
	"github.com/lfeng/aps/pkg/domain/services"
)

// DefaultExplosionDepthBound caps BOM-explosion depth independently of the
// overflow-chain bound. Hitting it usually means a cyclic BOM and is surfaced
// as a RecursionBoundError, never silently truncated.
const DefaultExplosionDepthBound = 100

// ProcurementPrefix is the plan-number prefix for procurement requests.
const ProcurementPrefix = "PUR"

// SkippedBranch records a propagation branch dropped by a routing
// configuration problem. Siblings continue; the skip stays visible.
type SkippedBranch struct {
	Material entities.MaterialCode
	Process  entities.ProcessName
	Reason   string
}

// UnschedulableItem records a child demand the capacity window could not
// fully hold.
type UnschedulableItem struct {
	SourceNo string
	Material entities.MaterialCode
	Process  entities.ProcessName
	UnmetQty entities.Quantity
	Reason   string
}

// Result accumulates everything one propagation pass produced.
type Result struct {
	Requirements  []*entities.MaterialRequirement
	Rows          []*entities.ScheduledRow
	Procurements  []*entities.ProcurementRequest
	Skipped       []SkippedBranch
	Unschedulable []UnschedulableItem
	Duplicates    int // guard hits; expected steady-state, not errors
}

func (r *Result) merge(other *Result) {
	r.Requirements = append(r.Requirements, other.Requirements...)
	r.Rows = append(r.Rows, other.Rows...)
	r.Procurements = append(r.Procurements, other.Procurements...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Unschedulable = append(r.Unschedulable, other.Unschedulable...)
	r.Duplicates += other.Duplicates
}

// Propagator explodes a scheduled row's product into child material
// requirements and routes each one.
type Propagator struct {
	uow      repositories.UnitOfWork
	bom      repositories.BOMRepository
	stock    repositories.StockRepository
	routing  repositories.RoutingRepository
	chains   *scheduling.OverflowChainBuilder
	guard    *IdempotencyGuard
	planNos  *services.PlanNumberGenerator
	maxDepth int
	logger   *zap.Logger
}

// NewPropagator creates a propagator. A non-positive depth bound falls back
// to the default.
func NewPropagator(
	uow repositories.UnitOfWork,
	bom repositories.BOMRepository,
	stock repositories.StockRepository,
	routing repositories.RoutingRepository,
	chains *scheduling.OverflowChainBuilder,
	planNos *services.PlanNumberGenerator,
	maxDepth int,
	logger *zap.Logger,
) *Propagator {
	if maxDepth <= 0 {
		maxDepth = DefaultExplosionDepthBound
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Propagator{
		uow:      uow,
		bom:      bom,
		stock:    stock,
		routing:  routing,
		chains:   chains,
		guard:    NewIdempotencyGuard(),
		planNos:  planNos,
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// PropagateRow explodes one satisfied scheduled row through its BOM. Rows
// with no scheduled quantity propagate nothing. Safe to call repeatedly for
// the same row.
func (p *Propagator) PropagateRow(ctx context.Context, row *entities.ScheduledRow) (*Result, error) {
	return p.propagateRow(ctx, row, 0)
}

func (p *Propagator) propagateRow(ctx context.Context, row *entities.ScheduledRow, depth int) (*Result, error) {
	result := &Result{}
	if row.ScheduleQuantity <= 0 {
		return result, nil
	}
	if depth >= p.maxDepth {
		return result, &entities.RecursionBoundError{
			Kind:     "bom-explosion",
			SourceNo: row.SourceNo,
			Bound:    p.maxDepth,
		}
	}

	bomKey := string(row.ProductCode)
	if row.BOMID != "" {
		bomKey = row.BOMID
	}
	children, err := p.bom.GetChildren(ctx, bomKey)
	if err != nil {
		return nil, fmt.Errorf("BOM lookup for %s failed: %w", bomKey, err)
	}

	for _, child := range children {
		childResult, err := p.propagateChild(ctx, row, child, depth)
		if err != nil {
			return nil, err
		}
		result.merge(childResult)
	}

	return result, nil
}

// propagateChild handles one BOM line: net the demand against stock, create
// the material requirement, and route it by source type.
func (p *Propagator) propagateChild(ctx context.Context, row *entities.ScheduledRow, child *entities.BOMChildLink, depth int) (*Result, error) {
	result := &Result{}

	demand := entities.Quantity(decimal.NewFromInt(int64(row.ScheduleQuantity)).Mul(child.StandardUsage).Ceil().IntPart())
	if demand <= 0 {
		return result, nil
	}

	available, err := p.stock.GetAvailableStock(ctx, child.ChildCode)
	if err != nil {
		return nil, fmt.Errorf("stock lookup for %s failed: %w", child.ChildCode, err)
	}

	replenish := demand - available
	if replenish <= 0 {
		p.logger.Debug("child demand covered by stock",
			zap.String("material", string(child.ChildCode)),
			zap.Int64("demand", int64(demand)),
			zap.Int64("available", int64(available)))
		return result, nil
	}

	repos := p.uow.Repos()
	existing, err := p.guard.ExistingRequirement(ctx, repos.Requirement, row.ID, child.ChildCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result.Duplicates++
		result.Requirements = append(result.Requirements, existing)
		return result, nil
	}

	matReq, err := entities.NewMaterialRequirement(
		uuid.NewString(),
		row.PlanNo,
		row.ID,
		row.ID,
		child.ChildCode,
		demand,
		available,
		row.ScheduleDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build requirement for %s: %w", child.ChildCode, err)
	}
	matReq.SourceProcess = child.OutputProcess
	matReq.CustomerOrder = row.CustomerOrder

	err = p.uow.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		return repos.Requirement.Insert(ctx, matReq)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert requirement for %s: %w", child.ChildCode, err)
	}
	result.Requirements = append(result.Requirements, matReq)

	switch child.Source {
	case entities.MakeInternal:
		if err := p.routeInternal(ctx, matReq, child, depth, result); err != nil {
			return nil, err
		}
	case entities.BuyExternal:
		if err := p.routeExternal(ctx, matReq, child, result); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown source type %d for material %s", child.Source, child.ChildCode)
	}

	return result, nil
}

// routeInternal schedules an internally made child as a new overflow chain
// whose sourceNo is the material requirement's identity, then recurses into
// the child's own BOM.
func (p *Propagator) routeInternal(ctx context.Context, matReq *entities.MaterialRequirement, child *entities.BOMChildLink, depth int, result *Result) error {
	route, err := p.routing.Get(ctx, child.OutputProcess)
	if err != nil {
		return fmt.Errorf("routing lookup for %q failed: %w", child.OutputProcess, err)
	}

	var confErr *entities.ConfigurationError
	switch {
	case route == nil:
		confErr = &entities.ConfigurationError{Process: child.OutputProcess, Reason: "process not in routing table"}
	case !route.Enabled:
		confErr = &entities.ConfigurationError{Process: child.OutputProcess, Reason: "process disabled in routing table"}
	}
	if confErr != nil {
		// Skip this branch only; siblings keep propagating.
		p.logger.Warn("skipping unroutable propagation branch",
			zap.String("material", string(child.ChildCode)),
			zap.String("process", string(child.OutputProcess)),
			zap.Error(confErr))
		result.Skipped = append(result.Skipped, SkippedBranch{
			Material: child.ChildCode,
			Process:  child.OutputProcess,
			Reason:   confErr.Error(),
		})
		return nil
	}

	repos := p.uow.Repos()
	existingRow, err := p.guard.ExistingChain(ctx, repos.Schedule, matReq.ID, child.ChildCode)
	if err != nil {
		return err
	}
	if existingRow != nil {
		result.Duplicates++
		return nil
	}

	chainResult, err := p.chains.BuildChain(ctx, scheduling.ChainRequest{
		SourceNo:      matReq.ID,
		ProductCode:   child.ChildCode,
		CustomerOrder: matReq.CustomerOrder,
		Route:         route,
		TargetQty:     matReq.ReplenishmentQty,
		DueDate:       matReq.DemandDate,
	})
	if err != nil {
		return err
	}

	result.Rows = append(result.Rows, chainResult.Rows...)
	if chainResult.Exhausted {
		result.Unschedulable = append(result.Unschedulable, UnschedulableItem{
			SourceNo: matReq.ID,
			Material: child.ChildCode,
			Process:  child.OutputProcess,
			UnmetQty: matReq.ReplenishmentQty - chainResult.Scheduled(),
			Reason:   chainResult.Reason,
		})
	}

	for _, childRow := range chainResult.Rows {
		childResult, err := p.propagateRow(ctx, childRow, depth+1)
		if err != nil {
			return err
		}
		result.merge(childResult)
	}
	return nil
}

// routeExternal creates or merges a procurement request keyed by
// (customerOrder, materialCode).
func (p *Propagator) routeExternal(ctx context.Context, matReq *entities.MaterialRequirement, child *entities.BOMChildLink, result *Result) error {
	arrival := matReq.DemandDate.AddDate(0, 0, -child.LeadTimeDays)

	var merged *entities.ProcurementRequest
	err := p.uow.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		existing, err := repos.Procurement.FindByOrderAndMaterial(ctx, matReq.CustomerOrder, matReq.MaterialCode)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Merge(matReq.ReplenishmentQty, arrival)
			merged = existing
			return repos.Procurement.Update(ctx, existing)
		}

		request, err := entities.NewProcurementRequest(
			p.planNos.Next(ProcurementPrefix),
			matReq.ID,
			matReq.CustomerOrder,
			matReq.MaterialCode,
			matReq.ReplenishmentQty,
			child.LeadTimeDays,
			matReq.DemandDate,
		)
		if err != nil {
			return err
		}
		merged = request
		return repos.Procurement.Insert(ctx, request)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert procurement for %s: %w", matReq.MaterialCode, err)
	}

	result.Procurements = append(result.Procurements, merged)
	return nil
}
