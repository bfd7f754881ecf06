package handlers

import (
	"errors"
	"expvar"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-identity-service/internal/application"
	"github.com/oksasatya/go-identity-service/internal/domain/entity"
	"github.com/oksasatya/go-identity-service/internal/domain/profile"
	"github.com/oksasatya/go-identity-service/internal/interface/middleware"
	"github.com/oksasatya/go-identity-service/pkg/helpers"
	"github.com/oksasatya/go-identity-service/pkg/response"
	"github.com/oksasatya/go-identity-service/pkg/validation"
)

// Counters exposed on /api/debug/vars.
var authMetrics = expvar.NewMap("identity_auth")

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type providerLoginRequest struct {
	ProfileID    string `json:"profile_id" binding:"required"`
	Profile      string `json:"profile" binding:"required,json"`
	Email        string `json:"email" binding:"omitempty,email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type updateEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type changePasswordRequest struct {
	Current string `json:"current_password"`
	New     string `json:"new_password" binding:"required,pwd,nefield=Current"`
}

func profileView(u *entity.User, p *entity.CanonicalProfile) gin.H {
	out := gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"folder_id":  u.FolderID,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
		"profile":    p,
	}
	return out
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	tok, err := h.Svc.IssueToken(u)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.SetAccess(c, tok.Token, tok.Expiry)
	response.Write(c, response.Success(c, http.StatusCreated, gin.H{"id": u.ID, "email": u.Email, "folder_id": u.FolderID}, "registered", map[string]any{"access_expires_at": tok.Expiry}))
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}

	res, tok, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		authMetrics.Add("login_failed", 1)
		h.fail(c, err)
		return
	}
	authMetrics.Add("login_ok", 1)
	h.Cookies.SetAccess(c, tok.Token, tok.Expiry)
	response.Write(c, response.Success(c, http.StatusOK, res, "login successful", map[string]any{"access_expires_at": tok.Expiry, "access_token": tok.Token}))
}

// LoginWithProvider is called by the OAuth/LDAP front once the handshake is done.
func (h *UserHandler) LoginWithProvider(c *gin.Context) {
	var req providerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}
	res, tok, err := h.Svc.LoginWithProvider(c.Request.Context(), userapp.ProviderLogin{
		ProfileID:    req.ProfileID,
		Profile:      req.Profile,
		Email:        req.Email,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		authMetrics.Add("provider_login_failed", 1)
		h.fail(c, err)
		return
	}
	authMetrics.Add("provider_login_ok", 1)
	h.Cookies.SetAccess(c, tok.Token, tok.Expiry)
	response.Write(c, response.Success(c, http.StatusOK, res, "login successful", map[string]any{"access_expires_at": tok.Expiry, "access_token": tok.Token}))
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Write(c, response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil))
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, p, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Write(c, response.Success(c, http.StatusOK, profileView(u, p), "profile", nil))
}

func (h *UserHandler) UpdateEmail(c *gin.Context) {
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}
	u, err := h.Svc.UpdateEmail(c.Request.Context(), middleware.UserID(c), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Write(c, response.Success(c, http.StatusOK, profileView(u, h.Svc.Profiles.GetProfile(c.Request.Context(), u)), "email updated", nil))
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), middleware.UserID(c), req.Current, req.New); err != nil {
		h.fail(c, err)
		return
	}
	response.Write(c, response.Success[any](c, http.StatusOK, map[string]any{"changed": true}, "password changed", nil))
}

// Avatar redirects to the avatar image; ?size=big selects the large variant.
func (h *UserHandler) Avatar(c *gin.Context) {
	size := profile.Small
	if c.Query("size") == "big" {
		size = profile.Big
	}
	url, err := h.Svc.Avatar(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Write(c, response.Success(c, http.StatusOK, hits, "users", map[string]any{"count": len(hits)}))
}

// fail maps service errors onto HTTP statuses. Authentication failures all
// look the same to the client.
func (h *UserHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, userapp.ErrInvalidCredentials):
		response.Write(c, response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil))
	case errors.Is(err, userapp.ErrValidation):
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
	case errors.Is(err, userapp.ErrEmailTaken):
		response.Write(c, response.Error[any](c, http.StatusConflict, "email already registered", nil))
	case errors.Is(err, userapp.ErrUserNotFound):
		response.Write(c, response.Error[any](c, http.StatusNotFound, "user not found", nil))
	case errors.Is(err, userapp.ErrNoAvatar):
		response.Write(c, response.Error[any](c, http.StatusNotFound, "no avatar", nil))
	case errors.Is(err, userapp.ErrStorageUnavailable):
		response.Write(c, response.Error[any](c, http.StatusServiceUnavailable, "file storage unavailable", nil))
	case errors.Is(err, userapp.ErrProvisioningConflict):
		response.Write(c, response.Error[any](c, http.StatusServiceUnavailable, "account is being set up, retry shortly", nil))
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			}).Error("request failed")
		}
		response.Write(c, response.Error[any](c, http.StatusInternalServerError, "internal error", nil))
	}
}
