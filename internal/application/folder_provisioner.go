package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/report"
	repo "github.com/oksasatya/go-identity-service/internal/domain/repository"
)

// FolderProvisioner guarantees that every user handed out by the service
// owns exactly one personal folder. The folder is created lazily, the first
// time an unprovisioned record is observed.
type FolderProvisioner struct {
	store       repo.Store
	reporter    report.Reporter
	logger      *logrus.Logger
	maxAttempts int
	timeout     time.Duration

	inflight singleflight.Group
}

// defaultProvisionTimeout bounds one shared provisioning run, which outlives
// the callers waiting on it.
const defaultProvisionTimeout = 10 * time.Second

func NewFolderProvisioner(store repo.Store, maxAttempts int, reporter report.Reporter, logger *logrus.Logger) *FolderProvisioner {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if reporter == nil {
		reporter = report.Nop
	}
	return &FolderProvisioner{store: store, reporter: reporter, logger: logger, maxAttempts: maxAttempts, timeout: defaultProvisionTimeout}
}

// EnsureFolder sets u.FolderID, creating and attaching a folder when u has
// none, and returns u. A nil user is returned as is and a provisioned user
// is returned without touching the store.
//
// Folder creation and attachment commit together. When a concurrent caller
// wins the race the loser re-reads the record and adopts the winner's
// folder; ErrProvisioningConflict is returned only once every attempt lost.
//
// Concurrent calls for the same user share one run. The run is detached from
// any single caller's cancellation; a caller whose ctx ends stops waiting
// while the others still get the result.
func (p *FolderProvisioner) EnsureFolder(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u == nil || u.Provisioned() {
		return u, nil
	}

	userID := u.ID
	detached := context.WithoutCancel(ctx)
	ch := p.inflight.DoChan(userID, func() (any, error) {
		c, cancel := context.WithTimeout(detached, p.timeout)
		defer cancel()
		return p.provision(c, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		u.FolderID = res.Val.(string)
		return u, nil
	}
}

// EnsureFolderTx provisions u inside the caller's transaction. There is no
// retry here: a conflict aborts the caller's transaction and is returned
// wrapped in ErrProvisioningConflict for the caller to retry as a whole.
func (p *FolderProvisioner) EnsureFolderTx(ctx context.Context, tx repo.Store, u *entity.User) (*entity.User, error) {
	if u == nil || u.Provisioned() {
		return u, nil
	}
	folderID, err := attachFolder(ctx, tx, u.ID)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, fmt.Errorf("%w: %v", ErrProvisioningConflict, err)
		}
		return nil, err
	}
	u.FolderID = folderID
	return u, nil
}

func (p *FolderProvisioner) provision(ctx context.Context, userID string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		var folderID string
		err := p.store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
			id, err := attachFolder(ctx, tx, userID)
			folderID = id
			return err
		})
		if err == nil {
			if p.logger != nil {
				p.logger.WithFields(logrus.Fields{"user_id": userID, "folder_id": folderID}).Info("folder provisioned")
			}
			return folderID, nil
		}
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		if !errors.Is(err, repo.ErrConflict) {
			return "", err
		}
		lastErr = err

		// Lost the race: converge on whatever the winner attached.
		cur, gErr := p.store.Users().GetByID(ctx, userID)
		if gErr != nil {
			if errors.Is(gErr, repo.ErrNotFound) {
				return "", ErrUserNotFound
			}
			return "", gErr
		}
		if cur.Provisioned() {
			return cur.FolderID, nil
		}
		if p.logger != nil {
			p.logger.WithFields(logrus.Fields{"user_id": userID, "attempt": attempt}).Debug("folder provisioning conflict, retrying")
		}
	}

	p.reporter.Report(ctx, report.NewEvent(report.KindProvisioningConflict, userID,
		fmt.Sprintf("folder provisioning gave up after %d attempts", p.maxAttempts), lastErr))
	return "", ErrProvisioningConflict
}

// attachFolder reuses a folder already owned by userID, or creates one, and
// attaches it to the user record.
func attachFolder(ctx context.Context, tx repo.Store, userID string) (string, error) {
	f, err := tx.Folders().GetByOwner(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		f, err = tx.Folders().Create(ctx, userID)
	}
	if err != nil {
		return "", err
	}
	if err := tx.Users().AttachFolder(ctx, userID, f.ID); err != nil {
		return "", err
	}
	return f.ID, nil
}
