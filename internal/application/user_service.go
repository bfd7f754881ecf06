package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/profile"
	repo "github.com/oksasatya/go-identity-service/internal/domain/repository"
	"github.com/oksasatya/go-identity-service/pkg/helpers"
	"github.com/oksasatya/go-identity-service/pkg/validation"
)

// Service is the identity use-case layer. Every path that loads a user runs
// the folder provisioner before the record goes anywhere else.
type Service struct {
	Store        repo.Store
	Credentials  *CredentialStore
	Profiles     *profile.Resolver
	Provisioner  *FolderProvisioner
	JWT          *helpers.JWTManager
	GCS          *storage.Client
	GCSBucket    string
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

type AccessToken struct {
	Token  string
	Expiry time.Time
}

func NewService(store repo.Store, creds *CredentialStore, profiles *profile.Resolver, provisioner *FolderProvisioner, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Store:        store,
		Credentials:  creds,
		Profiles:     profiles,
		Provisioner:  provisioner,
		JWT:          jwt,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

type LoginResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
	Photo    string `json:"photo,omitempty"`
	FolderID string `json:"folder_id"`
}

func (s *Service) loginResponse(ctx context.Context, u *entity.User) *LoginResponse {
	resp := &LoginResponse{UserID: u.ID, Email: u.Email, FolderID: u.FolderID}
	if p := s.Profiles.GetProfile(ctx, u); p != nil {
		resp.Name, resp.Photo = p.Name, p.Photo
	}
	return resp
}

func validateEmail(email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// Register creates a password user and its folder in one transaction.
func (s *Service) Register(ctx context.Context, email, password string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.Store.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	u := &entity.User{Email: email}
	if err := s.Credentials.SetPassword(ctx, u, password); err != nil {
		return nil, err
	}
	err := s.Store.WithTx(ctx, func(ctx context.Context, tx repo.Store) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		_, err := s.Provisioner.EnsureFolderTx(ctx, tx, u)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "folder_id": u.FolderID}).Info("user registered")
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// Authenticate validates email/password and returns the provisioned user without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if u != nil {
		// Every loaded record is provisioned before anything else sees it,
		// whether or not the password matches.
		if u, err = s.Provisioner.EnsureFolder(ctx, u); err != nil {
			return nil, err
		}
	}
	if u == nil || !u.HasPassword() {
		s.Credentials.VerifyDummy(ctx, password)
		return nil, ErrInvalidCredentials
	}
	if !s.Credentials.Verify(ctx, u, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueToken signs a stateless access token for u.
func (s *Service) IssueToken(u *entity.User) (AccessToken, error) {
	tok, exp, err := s.JWT.GenerateAccessToken(u.ID, uuid.NewString())
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return AccessToken{}, err
	}
	return AccessToken{Token: tok, Expiry: exp}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, AccessToken, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, AccessToken{}, err
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, AccessToken{}, err
	}
	return s.loginResponse(ctx, u), tok, nil
}

// ProviderLogin is what the OAuth/LDAP layer hands over after a successful
// handshake. Profile is the provider payload, JSON encoded.
type ProviderLogin struct {
	ProfileID    string
	Profile      string
	Email        string
	AccessToken  string
	RefreshToken string
}

// LoginWithProvider finds or creates the user behind a provider identity,
// refreshes the stored profile and provider tokens, and issues an access token.
func (s *Service) LoginWithProvider(ctx context.Context, in ProviderLogin) (*LoginResponse, AccessToken, error) {
	u, err := s.upsertProviderUser(ctx, in)
	if err != nil {
		return nil, AccessToken{}, err
	}
	if u, err = s.Provisioner.EnsureFolder(ctx, u); err != nil {
		return nil, AccessToken{}, err
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, AccessToken{}, err
	}
	_ = s.indexUser(ctx, u)
	return s.loginResponse(ctx, u), tok, nil
}

func (s *Service) upsertProviderUser(ctx context.Context, in ProviderLogin) (*entity.User, error) {
	if strings.TrimSpace(in.ProfileID) == "" {
		return nil, fmt.Errorf("%w: profile_id is required", ErrValidation)
	}
	if _, err := s.Profiles.ParseProfile(in.Profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.Email != "" {
		if err := validateEmail(in.Email); err != nil {
			return nil, err
		}
	}

	u, err := s.Store.Users().GetByProfileID(ctx, in.ProfileID)
	if errors.Is(err, repo.ErrNotFound) {
		u = &entity.User{
			ProfileID:    in.ProfileID,
			Profile:      in.Profile,
			Email:        in.Email,
			AccessToken:  in.AccessToken,
			RefreshToken: in.RefreshToken,
		}
		err = s.Store.Users().Create(ctx, u)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repo.ErrConflict) {
			return nil, err
		}
		// Either a parallel first login for the same identity or a taken
		// email. The winner's record still gets this login's profile and tokens.
		u, err = s.Store.Users().GetByProfileID(ctx, in.ProfileID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEmailTaken
		}
	}
	if err != nil {
		return nil, err
	}

	changed := false
	for _, f := range []struct {
		dst *string
		val string
	}{
		{&u.Profile, in.Profile},
		{&u.AccessToken, in.AccessToken},
		{&u.RefreshToken, in.RefreshToken},
		{&u.Email, in.Email},
	} {
		if f.val != "" && *f.dst != f.val {
			*f.dst = f.val
			changed = true
		}
	}
	if changed {
		if err := s.Store.Users().Update(ctx, u); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return nil, ErrEmailTaken
			}
			return nil, err
		}
	}
	return u, nil
}

// LoadUser fetches a user by id and provisions its folder before returning it.
func (s *Service) LoadUser(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Provisioner.EnsureFolder(ctx, u)
}

// GetProfile returns the user and its canonical profile; the profile is nil
// when the user has neither a provider profile nor an email.
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, *entity.CanonicalProfile, error) {
	u, err := s.LoadUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return u, s.Profiles.GetProfile(ctx, u), nil
}

// Avatar returns the avatar URL of the requested size.
func (s *Service) Avatar(ctx context.Context, userID string, size profile.Size) (string, error) {
	_, p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	url := profile.Photo(p, size)
	if url == "" {
		return "", ErrNoAvatar
	}
	return url, nil
}

// ChangePassword requires the current password when one is set. Provider
// users without a password may set one directly.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.LoadUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasPassword() && !s.Credentials.Verify(ctx, u, current) {
		return ErrInvalidCredentials
	}
	if err := s.Credentials.SetPassword(ctx, u, next); err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePassword(ctx, u.ID, u.PasswordHash); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("password changed")
	}
	return nil
}

func (s *Service) UpdateEmail(ctx context.Context, userID, email string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	u, err := s.LoadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Email == email {
		return u, nil
	}
	u.Email = email
	if err := s.Store.Users().Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// Index latest profile to Elasticsearch
	_ = s.indexUser(ctx, u)
	return u, nil
}

// UploadToFolder stores a file inside the user's personal folder and returns its URL.
func (s *Service) UploadToFolder(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", ErrStorageUnavailable
	}
	u, err := s.LoadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	objectPath := helpers.FolderObjectPath(u.FolderID, filename)
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "object": objectPath}).Error("folder upload failed")
		}
		return "", err
	}
	return url, nil
}

type userDoc struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	FolderID  string `json:"folder_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := userDoc{
		ID:        u.ID,
		Email:     u.Email,
		FolderID:  u.FolderID,
		CreatedAt: u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339Nano),
	}
	if p := s.Profiles.GetProfile(ctx, u); p != nil {
		doc.Name = p.Name
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a simple multi_match search on email and name.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"_source": []string{"id", "email", "name"},
		"size":    size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
