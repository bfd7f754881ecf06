// Package profile derives the canonical display identity (name and avatar
// URLs) of a user from the stored provider profile or, failing that, from
// the user's email.
package profile

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/report"
)

// ErrProfileDecode is returned when a stored profile payload cannot be decoded.
var ErrProfileDecode = errors.New("profile decode failed")

const DefaultGravatarBase = "https://www.gravatar.com/avatar/"

// LetterAvatarFunc renders an avatar URL for users with neither a provider photo nor an email.
type LetterAvatarFunc func(name string) string

type Resolver struct {
	letterAvatar LetterAvatarFunc
	reporter     report.Reporter
	gravatarBase string
}

type Option func(*Resolver)

// WithReporter sets the sink for profile decode events
func WithReporter(r report.Reporter) Option {
	return func(res *Resolver) {
		if r != nil {
			res.reporter = r
		}
	}
}

// WithGravatarBase overrides the gravatar endpoint; it must end with a slash
func WithGravatarBase(base string) Option {
	return func(res *Resolver) {
		if base != "" {
			res.gravatarBase = base
		}
	}
}

func NewResolver(letter LetterAvatarFunc, opts ...Option) *Resolver {
	r := &Resolver{
		letterAvatar: letter,
		reporter:     report.Nop,
		gravatarBase: DefaultGravatarBase,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetProfile resolves the canonical profile of u. The stored provider profile
// wins; when it is absent or undecodable the email is used; with neither the
// result is nil. Decode failures are reported, never returned.
func (r *Resolver) GetProfile(ctx context.Context, u *entity.User) *entity.CanonicalProfile {
	if u == nil {
		return nil
	}
	if u.Profile != "" {
		p, err := r.ParseProfile(u.Profile)
		if err == nil {
			return p
		}
		r.reporter.Report(ctx, report.NewEvent(report.KindProfileDecode, u.ID, "stored profile is not decodable", err))
	}
	if u.Email != "" {
		return r.ParseProfileByEmail(u.Email)
	}
	return nil
}

type envelope struct {
	Provider    Provider   `json:"provider"`
	Username    flexString `json:"username"`
	DisplayName flexString `json:"displayName"`
}

// ParseProfile decodes a serialized provider profile. Anything other than a
// JSON object with a string provider yields ErrProfileDecode; a field of an
// unexpected type is read as empty.
func (r *Resolver) ParseProfile(raw string) (*entity.CanonicalProfile, error) {
	data := []byte(raw)
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrProfileDecode)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileDecode, err)
	}
	src := newSource(env.Provider)
	if err := json.Unmarshal(data, src); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrProfileDecode, env.Provider, err)
	}

	name := string(env.DisplayName)
	if name == "" {
		name = string(env.Username)
	}
	return &entity.CanonicalProfile{
		Name:        name,
		Photo:       src.avatar(Small, r),
		BiggerPhoto: src.avatar(Big, r),
	}, nil
}

// ParseProfileByEmail derives a profile from an email alone: the local part
// as name and gravatar images.
func (r *Resolver) ParseProfileByEmail(email string) *entity.CanonicalProfile {
	name := ""
	if i := strings.LastIndex(email, "@"); i >= 0 {
		name = email[:i]
	}
	return &entity.CanonicalProfile{
		Name:        name,
		Photo:       r.gravatar(email, Small),
		BiggerPhoto: r.gravatar(email, Big),
	}
}

// Photo picks the avatar of the requested size from a canonical profile
func Photo(p *entity.CanonicalProfile, size Size) string {
	if p == nil {
		return ""
	}
	if size == Big {
		return p.BiggerPhoto
	}
	return p.Photo
}

func (r *Resolver) gravatar(email string, size Size) string {
	sum := md5.Sum([]byte(email))
	return r.gravatarBase + hex.EncodeToString(sum[:]) + "?s=" + strconv.Itoa(size.Pixels())
}
