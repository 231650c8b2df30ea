package memory

import (
	"context"

	"github.com/lfeng/aps/pkg/domain/entities"
	"github.com/lfeng/aps/pkg/domain/repositories"
)

// BOMRepository is an in-memory, read-only BOM lookup. Children are stored
// in load order and returned in that order. Loaded once at startup from seed
// data; the core never mutates BOM content.
type BOMRepository struct {
	children map[string][]*entities.BOMChildLink
}

// NewBOMRepository creates an empty BOM repository.
func NewBOMRepository() *BOMRepository {
	return &BOMRepository{children: make(map[string][]*entities.BOMChildLink)}
}

var _ repositories.BOMRepository = (*BOMRepository)(nil)

// AddChild registers a child link under a product code or BOM identifier.
func (r *BOMRepository) AddChild(productOrBOMID string, child *entities.BOMChildLink) {
	copied := *child
	r.children[productOrBOMID] = append(r.children[productOrBOMID], &copied)
}

// GetChildren returns the ordered child links for a key; unknown keys yield
// an empty slice.
func (r *BOMRepository) GetChildren(ctx context.Context, productOrBOMID string) ([]*entities.BOMChildLink, error) {
	links := r.children[productOrBOMID]
	out := make([]*entities.BOMChildLink, 0, len(links))
	for _, link := range links {
		copied := *link
		out = append(out, &copied)
	}
	return out, nil
}

// StockRepository is an in-memory, read-only stock lookup. Materials without
// an entry report zero available stock.
type StockRepository struct {
	stock map[entities.MaterialCode]entities.Quantity
}

// NewStockRepository creates an empty stock repository.
func NewStockRepository() *StockRepository {
	return &StockRepository{stock: make(map[entities.MaterialCode]entities.Quantity)}
}

var _ repositories.StockRepository = (*StockRepository)(nil)

// SetStock records the available quantity for a material.
func (r *StockRepository) SetStock(material entities.MaterialCode, qty entities.Quantity) {
	r.stock[material] = qty
}

// GetAvailableStock returns the available quantity for a material.
func (r *StockRepository) GetAvailableStock(ctx context.Context, material entities.MaterialCode) (entities.Quantity, error) {
	return r.stock[material], nil
}

// RoutingRepository is an in-memory process routing table.
type RoutingRepository struct {
	routes map[entities.ProcessName]*entities.ProcessRoute
}

// NewRoutingRepository creates an empty routing repository.
func NewRoutingRepository() *RoutingRepository {
	return &RoutingRepository{routes: make(map[entities.ProcessName]*entities.ProcessRoute)}
}

var _ repositories.RoutingRepository = (*RoutingRepository)(nil)

// AddRoute registers a process route.
func (r *RoutingRepository) AddRoute(route *entities.ProcessRoute) {
	copied := *route
	r.routes[copied.ProcessName] = &copied
}

// Get returns the route for a process, or nil if unmapped.
func (r *RoutingRepository) Get(ctx context.Context, process entities.ProcessName) (*entities.ProcessRoute, error) {
	route, ok := r.routes[process]
	if !ok {
		return nil, nil
	}
	copied := *route
	return &copied, nil
}

// List returns all routes.
func (r *RoutingRepository) List(ctx context.Context) ([]*entities.ProcessRoute, error) {
	var out []*entities.ProcessRoute
	for _, route := range r.routes {
		copied := *route
		out = append(out, &copied)
	}
	return out, nil
}
