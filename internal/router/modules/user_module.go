package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-identity-service/internal/interface/http"
	"github.com/oksasatya/go-identity-service/internal/interface/middleware"
	"github.com/oksasatya/go-identity-service/pkg/helpers"
)

// UserModule wires profile handlers behind JWT auth.
// Protected: GET /api/profile, PUT /api/profile/email, PUT /api/profile/password,
// GET /api/users/:id/avatar, GET /api/users/search

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Limits  Limits
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, limits Limits) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Limits: limits}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.JWTAuth(m.JWT), m.Limits.perUser())
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile/email", m.Handler.UpdateEmail)
		auth.PUT("/profile/password", m.Handler.ChangePassword)
		auth.GET("/users/:id/avatar", m.Handler.Avatar)
		// Search users via Elasticsearch
		auth.GET("/users/search", m.Handler.Search)
	}
}
