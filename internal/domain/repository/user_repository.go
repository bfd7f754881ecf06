package repository

import (
	"context"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByProfileID(ctx context.Context, profileID string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// Update persists email, profile, history and provider tokens.
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	// AttachFolder sets folder_id only while it is still null; ErrConflict otherwise.
	AttachFolder(ctx context.Context, id, folderID string) error
}
