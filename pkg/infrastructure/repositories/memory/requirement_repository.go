package memory

import (
	"context"
	"fmt"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// RequirementRepository is the in-memory material-requirement store.
type RequirementRepository struct {
	store *Store
}

// NewRequirementRepository creates a requirement repository on a shared store.
func NewRequirementRepository(store *Store) *RequirementRepository {
	return &RequirementRepository{store: store}
}

var _ repositories.RequirementRepository = (*RequirementRepository)(nil)

// Insert stores a new material requirement.
func (r *RequirementRepository) Insert(ctx context.Context, req *entities.MaterialRequirement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.requirements {
		if existing.ID == req.ID {
			return fmt.Errorf("material requirement %s already exists", req.ID)
		}
	}
	copied := *req
	r.store.requirements = append(r.store.requirements, &copied)
	return nil
}

// GetByID returns a copy of the requirement, or nil if none exists.
func (r *RequirementRepository) GetByID(ctx context.Context, id string) (*entities.MaterialRequirement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, req := range r.store.requirements {
		if req.ID == id {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

// FindBySourceAndMaterial returns the requirement for a (source, material)
// edge, or nil.
func (r *RequirementRepository) FindBySourceAndMaterial(ctx context.Context, sourceNo string, material entities.MaterialCode) (*entities.MaterialRequirement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, req := range r.store.requirements {
		if req.SourceNo == sourceNo && req.MaterialCode == material {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

// ListBySource returns all requirements exploded from one parent source.
func (r *RequirementRepository) ListBySource(ctx context.Context, sourceNo string) ([]*entities.MaterialRequirement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.MaterialRequirement
	for _, req := range r.store.requirements {
		if req.SourceNo == sourceNo {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}
