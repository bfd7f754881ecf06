package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/repository"
)

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u := &entity.User{Email: "alice@example.com", ProfileID: "github:42"}
	require.NoError(t, s.Users().Create(ctx, u))
	require.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byID, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := s.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byProfile, err := s.Users().GetByProfileID(ctx, "github:42")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byProfile.ID)

	_, err = s.Users().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Users().GetByEmail(ctx, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_Uniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Users().Create(ctx, &entity.User{Email: "a@example.com", ProfileID: "p1"}))

	assert.ErrorIs(t, s.Users().Create(ctx, &entity.User{Email: "a@example.com"}), repository.ErrConflict)
	assert.ErrorIs(t, s.Users().Create(ctx, &entity.User{ProfileID: "p1"}), repository.ErrConflict)
	// Empty email and profile id are not unique keys.
	require.NoError(t, s.Users().Create(ctx, &entity.User{}))
	require.NoError(t, s.Users().Create(ctx, &entity.User{}))

	other := &entity.User{Email: "b@example.com"}
	require.NoError(t, s.Users().Create(ctx, other))
	other.Email = "a@example.com"
	assert.ErrorIs(t, s.Users().Update(ctx, other), repository.ErrConflict)
}

func TestUsers_ReturnedCopiesAreDetached(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := &entity.User{Email: "a@example.com"}
	require.NoError(t, s.Users().Create(ctx, u))

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Email = "changed@example.com"

	again, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email)
}

func TestUsers_AttachFolderOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := &entity.User{Email: "a@example.com"}
	require.NoError(t, s.Users().Create(ctx, u))

	require.NoError(t, s.Users().AttachFolder(ctx, u.ID, "f1"))
	assert.ErrorIs(t, s.Users().AttachFolder(ctx, u.ID, "f2"), repository.ErrConflict)
	assert.ErrorIs(t, s.Users().AttachFolder(ctx, "missing", "f3"), repository.ErrNotFound)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "f1", got.FolderID)
}

func TestFolders_OnePerOwner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := &entity.User{Email: "a@example.com"}
	require.NoError(t, s.Users().Create(ctx, u))

	f, err := s.Folders().Create(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, f.OwnerID)

	_, err = s.Folders().Create(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = s.Folders().Create(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := s.Folders().GetByOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, 1, s.FolderCount(u.ID))
}

func TestWithTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := &entity.User{Email: "a@example.com"}
	require.NoError(t, s.Users().Create(ctx, u))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		f, err := tx.Folders().Create(ctx, u.ID)
		require.NoError(t, err)
		require.NoError(t, tx.Users().AttachFolder(ctx, u.ID, f.ID))

		// Visible inside the transaction.
		inside, err := tx.Users().GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, f.ID, inside.FolderID)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FolderID)
	assert.Equal(t, 0, s.FolderCount(u.ID))
}

func TestWithTx_CommitAndNesting(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := &entity.User{Email: "a@example.com"}
	require.NoError(t, s.Users().Create(ctx, u))

	err := s.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		f, err := tx.Folders().Create(ctx, u.ID)
		if err != nil {
			return err
		}
		return tx.WithTx(ctx, func(ctx context.Context, inner repository.Store) error {
			return inner.Users().AttachFolder(ctx, u.ID, f.ID)
		})
	})
	require.NoError(t, err)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.FolderID)
	assert.Equal(t, 1, s.FolderCount(u.ID))
}

func TestWithTx_CancelledContextRollsBack(t *testing.T) {
	s := NewStore()
	u := &entity.User{Email: "a@example.com"}
	require.NoError(t, s.Users().Create(context.Background(), u))

	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		_, err := tx.Folders().Create(ctx, u.ID)
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.FolderCount(u.ID))
}
