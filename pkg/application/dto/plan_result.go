package dto

import (
	"github.com/lfeng/aps/pkg/application/services/propagation"
	"github.com/lfeng/aps/pkg/domain/entities"
)

// PlanResult is the complete output of planning one top-level requirement:
// the overflow chain of the requirement itself plus everything its BOM
// explosion produced downstream.
type PlanResult struct {
	SourceNo string

	Rows         []*entities.ScheduledRow
	Requirements []*entities.MaterialRequirement
	Procurements []*entities.ProcurementRequest

	// Unschedulable lists demand the capacity window could not fully hold.
	// These are surfaced, never dropped.
	Unschedulable []propagation.UnschedulableItem

	// Skipped lists propagation branches dropped by routing configuration
	// problems. Siblings of a skipped branch still propagate.
	Skipped []propagation.SkippedBranch

	// Duplicates counts idempotency-guard hits: expected on re-invocation.
	Duplicates int
}

// FullyScheduled reports whether every chain met its target.
func (r *PlanResult) FullyScheduled() bool {
	return len(r.Unschedulable) == 0
}
