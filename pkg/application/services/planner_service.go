// Package services wires the scheduling and propagation cores into the
// planner entry point consumed by the upstream order subsystem.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lfeng/aps/pkg/application/dto"
	"github.com/lfeng/aps/pkg/application/services/propagation"
	"github.com/lfeng/aps/pkg/application/services/scheduling"
	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// PlannerService is the synchronous planning entry point. Each call runs one
// requirement to completion, including every recursive chain and explosion
// step, before returning; chains are never planned concurrently against the
// same capacity records.
type PlannerService struct {
	uow        repositories.UnitOfWork
	routing    repositories.RoutingRepository
	ledger     *scheduling.CapacityLedger
	chains     *scheduling.OverflowChainBuilder
	propagator *propagation.Propagator
	guard      *propagation.IdempotencyGuard
	logger     *zap.Logger
}

// NewPlannerService creates a planner service.
func NewPlannerService(
	uow repositories.UnitOfWork,
	routing repositories.RoutingRepository,
	ledger *scheduling.CapacityLedger,
	chains *scheduling.OverflowChainBuilder,
	propagator *propagation.Propagator,
	logger *zap.Logger,
) *PlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlannerService{
		uow:        uow,
		routing:    routing,
		ledger:     ledger,
		chains:     chains,
		propagator: propagator,
		guard:      propagation.NewIdempotencyGuard(),
		logger:     logger,
	}
}

// PlanRequirement schedules a finalized top-level requirement and propagates
// it through the BOM. Re-invoking with the same requirement is safe: the
// existing chain is returned instead of a second one being created.
func (s *PlannerService) PlanRequirement(ctx context.Context, req *entities.Requirement) (*dto.PlanResult, error) {
	if req == nil {
		return nil, fmt.Errorf("requirement cannot be nil")
	}

	route, err := s.routing.Get(ctx, req.Process)
	if err != nil {
		return nil, fmt.Errorf("routing lookup for %q failed: %w", req.Process, err)
	}
	if route == nil {
		return nil, &entities.ConfigurationError{Process: req.Process, Reason: "process not in routing table"}
	}
	if !route.Enabled {
		return nil, &entities.ConfigurationError{Process: req.Process, Reason: "process disabled in routing table"}
	}

	result := &dto.PlanResult{SourceNo: req.SourceNo}
	repos := s.uow.Repos()

	existing, err := s.guard.ExistingChain(ctx, repos.Schedule, req.SourceNo, req.ProductCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Already planned; hand back the persisted chain.
		rows, err := repos.Schedule.ListBySource(ctx, req.SourceNo)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing chain %s: %w", req.SourceNo, err)
		}
		result.Rows = rows
		result.Duplicates++
		s.logger.Info("requirement already planned",
			zap.String("sourceNo", req.SourceNo),
			zap.Int("rows", len(rows)))
		return result, nil
	}

	chainResult, err := s.chains.BuildChain(ctx, scheduling.ChainRequest{
		SourceNo:      req.SourceNo,
		ProductCode:   req.ProductCode,
		BOMID:         req.BOMID,
		CustomerOrder: req.CustomerOrder,
		Route:         route,
		TargetQty:     req.Quantity,
		DueDate:       req.PromisedDate,
	})
	if err != nil {
		return nil, err
	}

	result.Rows = chainResult.Rows
	if chainResult.Exhausted {
		result.Unschedulable = append(result.Unschedulable, propagation.UnschedulableItem{
			SourceNo: req.SourceNo,
			Material: req.ProductCode,
			Process:  req.Process,
			UnmetQty: req.Quantity - chainResult.Scheduled(),
			Reason:   chainResult.Reason,
		})
	}

	for _, row := range chainResult.Rows {
		propResult, err := s.propagator.PropagateRow(ctx, row)
		if err != nil {
			return nil, err
		}
		result.Requirements = append(result.Requirements, propResult.Requirements...)
		result.Rows = append(result.Rows, propResult.Rows...)
		result.Procurements = append(result.Procurements, propResult.Procurements...)
		result.Unschedulable = append(result.Unschedulable, propResult.Unschedulable...)
		result.Skipped = append(result.Skipped, propResult.Skipped...)
		result.Duplicates += propResult.Duplicates
	}

	s.logger.Info("planned requirement",
		zap.String("sourceNo", req.SourceNo),
		zap.String("product", string(req.ProductCode)),
		zap.Int("rows", len(result.Rows)),
		zap.Int("requirements", len(result.Requirements)),
		zap.Int("procurements", len(result.Procurements)),
		zap.Int("unschedulable", len(result.Unschedulable)))

	return result, nil
}

// DeleteRow removes a scheduled row and self-heals capacity by resumming the
// remaining active rows for its process-date. The delete, the resum, and the
// chain-wide aggregate refresh commit together or not at all.
func (s *PlannerService) DeleteRow(ctx context.Context, planNo string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		row, err := repos.Schedule.GetByPlanNo(ctx, planNo)
		if err != nil {
			return fmt.Errorf("failed to load row %s: %w", planNo, err)
		}
		if row == nil {
			return fmt.Errorf("scheduled row %s not found", planNo)
		}

		if err := repos.Schedule.Delete(ctx, planNo); err != nil {
			return fmt.Errorf("failed to delete row %s: %w", planNo, err)
		}

		if err := s.ledger.Release(ctx, repos.Capacity, repos.Schedule, row.ProcessName, row.ScheduleDate); err != nil {
			return err
		}

		return scheduling.RecomputeChain(ctx, repos, row.SourceNo)
	})
}
