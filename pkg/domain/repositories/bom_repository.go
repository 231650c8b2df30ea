package repositories

import (
	"context"

	"github.com/lfeng/aps/pkg/domain/entities"
)

// BOMRepository provides read-only access to bill-of-materials data owned by
// the BOM editor collaborator.
type BOMRepository interface {
	// GetChildren returns the ordered child links for a product code or an
	// explicit BOM identifier. An unknown key yields an empty slice.
	GetChildren(ctx context.Context, productOrBOMID string) ([]*entities.BOMChildLink, error)
}

// StockRepository provides read-only access to current available stock.
type StockRepository interface {
	GetAvailableStock(ctx context.Context, material entities.MaterialCode) (entities.Quantity, error)
}

// RoutingRepository provides access to the process routing configuration.
type RoutingRepository interface {
	// Get returns the route for a process name, or nil if unmapped.
	Get(ctx context.Context, process entities.ProcessName) (*entities.ProcessRoute, error)

	List(ctx context.Context) ([]*entities.ProcessRoute, error)
}
