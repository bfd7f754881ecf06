package entity

import "time"

// Folder is the personal storage root of a user. One per owner.
type Folder struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
}
