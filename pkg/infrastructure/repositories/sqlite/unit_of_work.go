package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lfeng/aps/pkg/domain/repositories"
)

// UnitOfWork runs planning steps inside real SQLite transactions. Each
// WithinTx call opens a transaction and binds a fresh repository bundle to
// it, so every statement issued by fn commits or rolls back together.
type UnitOfWork struct {
	db    *sql.DB
	repos *repositories.Repositories
}

// NewUnitOfWork creates a unit of work over an opened database.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{
		db:    db,
		repos: newRepositories(db),
	}
}

var _ repositories.UnitOfWork = (*UnitOfWork)(nil)

// WithinTx runs fn in one transaction, committing on nil and rolling back on
// error or panic.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repositories.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return fmt.Errorf("transaction rolled back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Repos returns non-transactional repository handles bound to the database.
func (u *UnitOfWork) Repos() *repositories.Repositories {
	return u.repos
}

func newRepositories(q querier) *repositories.Repositories {
	return &repositories.Repositories{
		Capacity:    NewCapacityRepository(q),
		Schedule:    NewScheduleRepository(q),
		Requirement: NewRequirementRepository(q),
		Procurement: NewProcurementRepository(q),
	}
}
