package repositories

import (
	"context"

	"github.com/lfeng/aps/pkg/domain/entities"
)

// RequirementRepository stores MaterialRequirements produced by BOM explosion.
type RequirementRepository interface {
	Insert(ctx context.Context, req *entities.MaterialRequirement) error

	GetByID(ctx context.Context, id string) (*entities.MaterialRequirement, error)

	// FindBySourceAndMaterial returns the existing requirement for a
	// (parent source, child material) edge, or nil. Idempotency-guard lookup.
	FindBySourceAndMaterial(ctx context.Context, sourceNo string, material entities.MaterialCode) (*entities.MaterialRequirement, error)

	// ListBySource returns all requirements exploded from one parent source.
	ListBySource(ctx context.Context, sourceNo string) ([]*entities.MaterialRequirement, error)
}
