package repository

import (
	"context"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
)

// FolderRepository stores personal folders. Owners are unique: creating a
// second folder for the same owner fails with ErrConflict.
type FolderRepository interface {
	Create(ctx context.Context, ownerID string) (*entity.Folder, error)
	GetByOwner(ctx context.Context, ownerID string) (*entity.Folder, error)
}
