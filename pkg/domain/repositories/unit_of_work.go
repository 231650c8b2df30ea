package repositories

import "context"

// Repositories bundles the mutable stores touched by one planning step. The
// read-only collaborators (BOM, stock, routing) live outside the transaction.
type Repositories struct {
	Capacity    CapacityRepository
	Schedule    ScheduleRepository
	Requirement RequirementRepository
	Procurement ProcurementRepository
}

// UnitOfWork scopes a function to one atomic transaction. Every
// create -> allocate -> chain-recompute step runs inside a single WithinTx
// call: the row insert, the capacity reservation, and the chain-wide
// recompute either all commit or all roll back. A nil return commits; any
// error rolls back and is returned wrapped.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error

	// Repos returns non-transactional repository handles for reads outside
	// a unit of work.
	Repos() *Repositories
}
