package entity

import (
	"time"
)

// User is the aggregate root for user domain
// PasswordHash holds the encoded scrypt container, never the plain password.
// FolderID is empty only until the record is first provisioned.
type User struct {
	ID           string
	ProfileID    string // provider-issued identity key, unique when set
	Profile      string // last seen provider profile, JSON encoded
	History      string
	Email        string
	PasswordHash string
	FolderID     string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can sign in with a password
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

// Provisioned reports whether the personal folder has been attached
func (u *User) Provisioned() bool { return u.FolderID != "" }
