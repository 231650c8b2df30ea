package entities

import (
	"fmt"
	"time"
)

// Requirement is a finalized top-level production requirement handed to the
// planner by the upstream order subsystem.
type Requirement struct {
	SourceNo      string // requirement identity, shared by its whole chain
	ProductCode   MaterialCode
	BOMID         string // optional explicit BOM to explode; empty = default
	Quantity      Quantity
	PromisedDate  time.Time
	Process       ProcessName
	CustomerOrder string
}

// NewRequirement creates a validated top-level Requirement.
func NewRequirement(sourceNo string, product MaterialCode, quantity Quantity, promisedDate time.Time, process ProcessName) (*Requirement, error) {
	if sourceNo == "" {
		return nil, fmt.Errorf("source number cannot be empty")
	}
	if string(product) == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if string(process) == "" {
		return nil, fmt.Errorf("process name cannot be empty")
	}

	return &Requirement{
		SourceNo:     sourceNo,
		ProductCode:  product,
		Quantity:     quantity,
		PromisedDate: Day(promisedDate),
		Process:      process,
	}, nil
}

// MaterialRequirement is a child demand produced by exploding a satisfied
// ScheduledRow through its BOM. Immutable once created; only the routing
// outcome it triggers (a child chain or a procurement request) varies.
type MaterialRequirement struct {
	ID               string
	PlanNo           string
	MaterialCode     MaterialCode
	DemandQty        Quantity
	AvailableStock   Quantity
	ReplenishmentQty Quantity // demand - available
	SourceProcess    ProcessName
	ParentRowID      string
	SourceNo         string // identity of the parent edge, used for dedup
	CustomerOrder    string
	DemandDate       time.Time
}

// NewMaterialRequirement creates a validated MaterialRequirement.
func NewMaterialRequirement(id, planNo, sourceNo, parentRowID string, material MaterialCode, demand, available Quantity, demandDate time.Time) (*MaterialRequirement, error) {
	if id == "" {
		return nil, fmt.Errorf("requirement id cannot be empty")
	}
	if sourceNo == "" {
		return nil, fmt.Errorf("source number cannot be empty")
	}
	if string(material) == "" {
		return nil, fmt.Errorf("material code cannot be empty")
	}
	if demand <= 0 {
		return nil, fmt.Errorf("demand quantity must be positive, got %d", demand)
	}

	return &MaterialRequirement{
		ID:               id,
		PlanNo:           planNo,
		SourceNo:         sourceNo,
		ParentRowID:      parentRowID,
		MaterialCode:     material,
		DemandQty:        demand,
		AvailableStock:   available,
		ReplenishmentQty: demand - available,
		DemandDate:       Day(demandDate),
	}, nil
}
