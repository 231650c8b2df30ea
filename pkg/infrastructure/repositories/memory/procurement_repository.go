package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// ProcurementRepository is the in-memory procurement-request store, keyed by
// (customerOrder, materialCode).
type ProcurementRepository struct {
	store *Store
}

// NewProcurementRepository creates a procurement repository on a shared store.
func NewProcurementRepository(store *Store) *ProcurementRepository {
	return &ProcurementRepository{store: store}
}

var _ repositories.ProcurementRepository = (*ProcurementRepository)(nil)

// Insert stores a new procurement request.
func (r *ProcurementRepository) Insert(ctx context.Context, req *entities.ProcurementRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := procurementKey(req.CustomerOrder, req.MaterialCode)
	if _, exists := r.store.procurements[key]; exists {
		return fmt.Errorf("procurement request for (%s, %s) already exists", req.CustomerOrder, req.MaterialCode)
	}
	copied := *req
	r.store.procurements[key] = &copied
	return nil
}

// Update replaces a stored procurement request.
func (r *ProcurementRepository) Update(ctx context.Context, req *entities.ProcurementRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := procurementKey(req.CustomerOrder, req.MaterialCode)
	if _, exists := r.store.procurements[key]; !exists {
		return fmt.Errorf("procurement request for (%s, %s) not found", req.CustomerOrder, req.MaterialCode)
	}
	copied := *req
	r.store.procurements[key] = &copied
	return nil
}

// FindByOrderAndMaterial returns the request for a customer order and
// material, or nil.
func (r *ProcurementRepository) FindByOrderAndMaterial(ctx context.Context, customerOrder string, material entities.MaterialCode) (*entities.ProcurementRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, ok := r.store.procurements[procurementKey(customerOrder, material)]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

// List returns all procurement requests ordered by plan number.
func (r *ProcurementRepository) List(ctx context.Context) ([]*entities.ProcurementRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.ProcurementRequest
	for _, req := range r.store.procurements {
		copied := *req
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcurementPlanNo < out[j].ProcurementPlanNo })
	return out, nil
}
