package repository

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a unique constraint or guarded update that lost a race.
	ErrConflict = errors.New("conflict")
)

// Store hands out repositories bound to one database handle.
//
// WithTx runs fn with a Store bound to a transaction; it commits when fn
// returns nil and rolls back otherwise. Calling WithTx on a Store that is
// already transactional reuses the running transaction.
type Store interface {
	Users() UserRepository
	Folders() FolderRepository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
