package application

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/report"
	"github.com/oksasatya/go-identity-service/pkg/helpers"
)

// CredentialStore hashes passwords on write and verifies them on login.
// Derivations are CPU and memory heavy, so at most `concurrency` run at once.
type CredentialStore struct {
	params   helpers.ScryptParams
	sem      *semaphore.Weighted
	reporter report.Reporter
	logger   *logrus.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialStore(params helpers.ScryptParams, concurrency int, reporter report.Reporter, logger *logrus.Logger) *CredentialStore {
	if concurrency <= 0 {
		concurrency = 1
	}
	if reporter == nil {
		reporter = report.Nop
	}
	return &CredentialStore{
		params:   params,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		reporter: reporter,
		logger:   logger,
	}
}

// HashPassword derives a fresh salted hash of plain. It waits for a free
// derivation slot and gives up when ctx is done.
func (c *CredentialStore) HashPassword(ctx context.Context, plain string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)
	return helpers.HashPassword(plain, c.params)
}

// SetPassword replaces u.PasswordHash with a hash of plain. Persisting the
// record is the caller's job.
func (c *CredentialStore) SetPassword(ctx context.Context, u *entity.User, plain string) error {
	hash, err := c.HashPassword(ctx, plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// Verify reports whether attempt matches the stored hash of u. It never
// returns an error: users without a password, malformed hashes and
// cancelled contexts all yield false. Malformed hashes are reported as
// integrity events.
func (c *CredentialStore) Verify(ctx context.Context, u *entity.User, attempt string) bool {
	if u == nil || !u.HasPassword() {
		return false
	}
	return c.verifyHash(ctx, u.ID, u.PasswordHash, attempt)
}

// VerifyDummy burns one derivation against a throwaway hash so that a login
// for an unknown account costs as much as one for a known account.
func (c *CredentialStore) VerifyDummy(ctx context.Context, attempt string) {
	c.dummyOnce.Do(func() {
		h, err := helpers.HashPassword("not-a-real-password", c.params)
		if err == nil {
			c.dummyHash = h
		}
	})
	if c.dummyHash != "" {
		_ = c.verifyHash(ctx, "", c.dummyHash, attempt)
	}
}

func (c *CredentialStore) verifyHash(ctx context.Context, userID, stored, attempt string) bool {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer c.sem.Release(1)

	ok, err := helpers.VerifyPassword(stored, attempt)
	if err != nil {
		if errors.Is(err, helpers.ErrMalformedHash) {
			c.reporter.Report(ctx, report.NewEvent(report.KindIntegrity, userID, "stored password hash is malformed", err))
		} else if c.logger != nil {
			c.logger.WithError(err).WithField("user_id", userID).Error("password verification failed")
		}
		return false
	}
	return ok
}
