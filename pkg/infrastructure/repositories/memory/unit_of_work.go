package memory

import (
	"context"
	"fmt"

	"github.com/lfeng/aps/pkg/domain/repositories"
)

// UnitOfWork gives snapshot-based transactional semantics over a Store: the
// state is deep-copied before fn runs and restored wholesale if fn fails, so
// a failed step leaves no partial allocation behind. Units of work are
// serialized; the planning core is single-writer.
type UnitOfWork struct {
	store *Store
	repos *repositories.Repositories
}

// NewUnitOfWork creates a unit of work and its repository bundle on a store.
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{
		store: store,
		repos: &repositories.Repositories{
			Capacity:    NewCapacityRepository(store),
			Schedule:    NewScheduleRepository(store),
			Requirement: NewRequirementRepository(store),
			Procurement: NewProcurementRepository(store),
		},
	}
}

var _ repositories.UnitOfWork = (*UnitOfWork)(nil)

// WithinTx runs fn against the live repositories, rolling the store back to
// its pre-call snapshot on error.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repositories.Repositories) error) error {
	u.store.txMu.Lock()
	defer u.store.txMu.Unlock()

	snap := u.store.snapshot()
	if err := fn(ctx, u.repos); err != nil {
		u.store.restore(snap)
		return fmt.Errorf("transaction rolled back: %w", err)
	}
	return nil
}

// Repos returns the non-transactional repository handles.
func (u *UnitOfWork) Repos() *repositories.Repositories {
	return u.repos
}
