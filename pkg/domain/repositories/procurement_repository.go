package repositories

import (
	"context"

	"github.com/lfeng/aps/pkg/domain/entities"
)

// ProcurementRepository stores ProcurementRequests keyed by
// (customerOrder, materialCode).
type ProcurementRepository interface {
	Insert(ctx context.Context, req *entities.ProcurementRequest) error
	Update(ctx context.Context, req *entities.ProcurementRequest) error

	// FindByOrderAndMaterial returns the existing request for a customer
	// order and material, or nil.
	FindByOrderAndMaterial(ctx context.Context, customerOrder string, material entities.MaterialCode) (*entities.ProcurementRequest, error)

	List(ctx context.Context) ([]*entities.ProcurementRequest, error)
}
