package repository

import (
	"context"
	"errors"

	"sushibar/waitline/internal/model"
)

var (
	// ErrDuplicateCode reports a unique-index conflict on parties.code.
	// Callers re-draw a code and retry.
	ErrDuplicateCode = errors.New("ticket code already exists")

	// ErrStaleTransition reports a guarded status update that matched no row:
	// the party was not in the expected prior status anymore.
	ErrStaleTransition = errors.New("party status changed concurrently")
)

// PartyRepository is the party store. Lookups that find nothing return
// gorm.ErrRecordNotFound.
type PartyRepository interface {
	Create(ctx context.Context, party *model.Party) error
	GetByCode(ctx context.Context, code string) (*model.Party, error)

	// ActiveQueue returns waiting and called parties in creation order.
	ActiveQueue(ctx context.Context) ([]model.Party, error)

	// OldestWaiting returns the next party to call, by creation order.
	OldestWaiting(ctx context.Context) (*model.Party, error)

	// OldestCalled returns the next party to serve, by called_at then id.
	OldestCalled(ctx context.Context) (*model.Party, error)

	CountByStatus(ctx context.Context, status model.PartyStatus) (int64, error)

	// Transition atomically moves a party from one status to another,
	// stamping the timestamp that belongs to the new status. The update is
	// guarded on the prior status; ErrStaleTransition if another writer won.
	Transition(ctx context.Context, id uint, from, to model.PartyStatus) (*model.Party, error)
}
