package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/repository"
)

const userColumns = `id::text, COALESCE(profile_id, ''), profile, history, COALESCE(email, ''), password_hash,
	COALESCE(folder_id::text, ''), access_token, refresh_token, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (profile_id, profile, history, email, password_hash, access_token, refresh_token)
		VALUES (NULLIF($1, ''), $2, $3, NULLIF($4, ''), $5, $6, $7)
		RETURNING id::text, created_at, updated_at
	`, u.ProfileID, u.Profile, u.History, u.Email, u.PasswordHash, u.AccessToken, u.RefreshToken)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByProfileID(ctx context.Context, profileID string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE profile_id = $1`, profileID)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if isNotFound(err) || isInvalidInput(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.ProfileID, &u.Profile, &u.History, &u.Email, &u.PasswordHash,
		&u.FolderID, &u.AccessToken, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET email = NULLIF($1, ''), profile = $2, history = $3, access_token = $4, refresh_token = $5, updated_at = $6
		WHERE id = $7
	`, u.Email, u.Profile, u.History, u.AccessToken, u.RefreshToken, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, hash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AttachFolder(ctx context.Context, id, folderID string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users SET folder_id = $1, updated_at = now() WHERE id = $2 AND folder_id IS NULL
	`, folderID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	if res.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either the user is gone or someone attached first.
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

var _ repository.UserRepository = (*UserRepository)(nil)
