package entities

import (
	"fmt"
	"time"
)

// ProcurementRequest is the terminal output for externally sourced materials.
// Requests are merged per (customerOrder, materialCode): quantities accumulate
// and the arrival date is pulled to the earliest computed value.
type ProcurementRequest struct {
	ProcurementPlanNo   string
	SourceRequirementID string
	CustomerOrder       string
	MaterialCode        MaterialCode
	RequiredQuantity    Quantity
	LeadTimeDays        int
	PlanArrivalDate     time.Time
}

// NewProcurementRequest creates a validated ProcurementRequest. The planned
// arrival date is the demand date pulled back by the lead time.
func NewProcurementRequest(planNo, sourceReqID, customerOrder string, material MaterialCode, quantity Quantity, leadTimeDays int, demandDate time.Time) (*ProcurementRequest, error) {
	if planNo == "" {
		return nil, fmt.Errorf("procurement plan number cannot be empty")
	}
	if string(material) == "" {
		return nil, fmt.Errorf("material code cannot be empty")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("required quantity must be positive, got %d", quantity)
	}
	if leadTimeDays < 0 {
		return nil, fmt.Errorf("lead time cannot be negative, got %d", leadTimeDays)
	}

	return &ProcurementRequest{
		ProcurementPlanNo:   planNo,
		SourceRequirementID: sourceReqID,
		CustomerOrder:       customerOrder,
		MaterialCode:        material,
		RequiredQuantity:    quantity,
		LeadTimeDays:        leadTimeDays,
		PlanArrivalDate:     Day(demandDate).AddDate(0, 0, -leadTimeDays),
	}, nil
}

// Merge folds a new demand into an existing request: quantity accumulates and
// the arrival date takes the earlier of existing and newly computed.
func (p *ProcurementRequest) Merge(quantity Quantity, arrival time.Time) {
	p.RequiredQuantity += quantity
	if arrival.Before(p.PlanArrivalDate) {
		p.PlanArrivalDate = Day(arrival)
	}
}
