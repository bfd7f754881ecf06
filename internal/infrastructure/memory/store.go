// Package memory is an in-process implementation of repository.Store.
// It enforces the same uniqueness rules as the Postgres schema and gives
// WithTx all-or-nothing semantics by staging writes on a private copy.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/repository"
)

type state struct {
	users   map[string]entity.User
	folders map[string]entity.Folder
}

func newState() *state {
	return &state{users: map[string]entity.User{}, folders: map[string]entity.Folder{}}
}

func (s *state) clone() *state {
	c := &state{
		users:   make(map[string]entity.User, len(s.users)),
		folders: make(map[string]entity.Folder, len(s.folders)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.folders {
		c.folders[k] = v
	}
	return c
}

type db struct {
	// writeMu serializes writers: transactions and standalone writes.
	writeMu sync.Mutex
	mu      sync.RWMutex
	st      *state
	now     func() time.Time
}

// Store is safe for concurrent use. A Store returned to a WithTx callback
// must only be used inside that callback.
type Store struct {
	db *db
	tx *state
}

func NewStore() *Store {
	return &Store{db: &db{st: newState(), now: func() time.Time { return time.Now().UTC() }}}
}

func (s *Store) Users() repository.UserRepository     { return &userRepo{s: s} }
func (s *Store) Folders() repository.FolderRepository { return &folderRepo{s: s} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	s.db.writeMu.Lock()
	defer s.db.writeMu.Unlock()

	s.db.mu.RLock()
	staged := s.db.st.clone()
	s.db.mu.RUnlock()

	if err := fn(ctx, &Store{db: s.db, tx: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	s.db.st = staged
	s.db.mu.Unlock()
	return nil
}

func (s *Store) read(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return fn(s.db.st)
}

func (s *Store) write(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.writeMu.Lock()
	defer s.db.writeMu.Unlock()
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.st)
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	return r.s.write(func(st *state) error {
		for _, existing := range st.users {
			if u.Email != "" && existing.Email == u.Email {
				return repository.ErrConflict
			}
			if u.ProfileID != "" && existing.ProfileID == u.ProfileID {
				return repository.ErrConflict
			}
		}
		now := r.s.db.now()
		u.ID = uuid.NewString()
		u.CreatedAt, u.UpdatedAt = now, now
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) find(match func(u entity.User) bool) (*entity.User, error) {
	var out *entity.User
	err := r.s.read(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				cp := u
				out = &cp
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.s.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByProfileID(_ context.Context, profileID string) (*entity.User, error) {
	if profileID == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(func(u entity.User) bool { return u.ProfileID == profileID })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(func(u entity.User) bool { return u.Email == email })
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	return r.s.write(func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if u.Email != "" {
			for id, other := range st.users {
				if id != u.ID && other.Email == u.Email {
					return repository.ErrConflict
				}
			}
		}
		u.UpdatedAt = r.s.db.now()
		cur.Email = u.Email
		cur.Profile = u.Profile
		cur.History = u.History
		cur.AccessToken = u.AccessToken
		cur.RefreshToken = u.RefreshToken
		cur.UpdatedAt = u.UpdatedAt
		st.users[u.ID] = cur
		return nil
	})
}

func (r *userRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.s.write(func(st *state) error {
		cur, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		cur.PasswordHash = hash
		cur.UpdatedAt = r.s.db.now()
		st.users[id] = cur
		return nil
	})
}

func (r *userRepo) AttachFolder(_ context.Context, id, folderID string) error {
	return r.s.write(func(st *state) error {
		cur, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.FolderID != "" {
			return repository.ErrConflict
		}
		cur.FolderID = folderID
		cur.UpdatedAt = r.s.db.now()
		st.users[id] = cur
		return nil
	})
}

type folderRepo struct{ s *Store }

func (r *folderRepo) Create(_ context.Context, ownerID string) (*entity.Folder, error) {
	var out *entity.Folder
	err := r.s.write(func(st *state) error {
		if _, ok := st.users[ownerID]; !ok {
			return repository.ErrNotFound
		}
		for _, f := range st.folders {
			if f.OwnerID == ownerID {
				return repository.ErrConflict
			}
		}
		f := entity.Folder{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: r.s.db.now()}
		st.folders[f.ID] = f
		out = &f
		return nil
	})
	return out, err
}

func (r *folderRepo) GetByOwner(_ context.Context, ownerID string) (*entity.Folder, error) {
	var out *entity.Folder
	err := r.s.read(func(st *state) error {
		for _, f := range st.folders {
			if f.OwnerID == ownerID {
				cp := f
				out = &cp
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

// FolderCount returns the number of stored folders owned by ownerID.
func (s *Store) FolderCount(ownerID string) int {
	n := 0
	_ = s.read(func(st *state) error {
		for _, f := range st.folders {
			if f.OwnerID == ownerID {
				n++
			}
		}
		return nil
	})
	return n
}

var _ repository.Store = (*Store)(nil)
