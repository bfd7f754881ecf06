package entity

// CanonicalProfile is the display identity derived from a provider profile or an email.
// It is computed on demand and never persisted.
type CanonicalProfile struct {
	Name        string `json:"name"`
	Photo       string `json:"photo"`
	BiggerPhoto string `json:"bigger_photo"`
}
