package postgres

import (
	"context"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/repository"
)

type FolderRepository struct {
	db DBTX
}

func NewFolderRepository(db DBTX) *FolderRepository {
	return &FolderRepository{db: db}
}

func (r *FolderRepository) Create(ctx context.Context, ownerID string) (*entity.Folder, error) {
	f := &entity.Folder{OwnerID: ownerID}
	row := r.db.QueryRow(ctx, `
		INSERT INTO folders (owner_id) VALUES ($1)
		RETURNING id::text, created_at
	`, ownerID)
	if err := row.Scan(&f.ID, &f.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return f, nil
}

func (r *FolderRepository) GetByOwner(ctx context.Context, ownerID string) (*entity.Folder, error) {
	f := &entity.Folder{}
	row := r.db.QueryRow(ctx, `
		SELECT id::text, owner_id::text, created_at FROM folders WHERE owner_id = $1
	`, ownerID)
	if err := row.Scan(&f.ID, &f.OwnerID, &f.CreatedAt); err != nil {
		if isNotFound(err) || isInvalidInput(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

var _ repository.FolderRepository = (*FolderRepository)(nil)
