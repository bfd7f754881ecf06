package application

import "errors"

var (
	// ErrInvalidCredentials covers every authentication failure so callers
	// cannot tell an unknown account from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoAvatar           = errors.New("no avatar available")
	ErrStorageUnavailable = errors.New("file storage not configured")
	// ErrProvisioningConflict is returned only after every provisioning attempt lost a race.
	ErrProvisioningConflict = errors.New("folder provisioning conflict")
)
