// Package propagation explodes satisfied scheduled rows through the bill of
// materials, routing each child demand to internal scheduling or external
// procurement. Re-invoking propagation for the same parent is safe: every
// downstream write is guarded by a (source, material) dedup check.
package propagation

import (
	"context"
	"fmt"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// IdempotencyGuard checks target stores for rows already created for a
// (sourceNo, materialCode) edge before any downstream write.
type IdempotencyGuard struct{}

// NewIdempotencyGuard creates an idempotency guard.
func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{}
}

// ExistingRequirement returns the material requirement already created for a
// parent edge, or nil when propagation has not run for it yet.
func (g *IdempotencyGuard) ExistingRequirement(ctx context.Context, repo repositories.RequirementRepository, sourceNo string, material entities.MaterialCode) (*entities.MaterialRequirement, error) {
	existing, err := repo.FindBySourceAndMaterial(ctx, sourceNo, material)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup for (%s, %s) failed: %w", sourceNo, material, err)
	}
	return existing, nil
}

// ExistingChain returns the first scheduled row already created for a
// (sourceNo, productCode) edge, or nil when no chain exists yet.
func (g *IdempotencyGuard) ExistingChain(ctx context.Context, repo repositories.ScheduleRepository, sourceNo string, product entities.MaterialCode) (*entities.ScheduledRow, error) {
	existing, err := repo.FindBySourceAndProduct(ctx, sourceNo, product)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup for (%s, %s) failed: %w", sourceNo, product, err)
	}
	return existing, nil
}
