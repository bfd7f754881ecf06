package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-identity-service/internal/interface/http"
)

// AuthModule exposes the public authentication routes:
// POST /api/register, POST /api/login, POST /api/login/provider, POST /api/logout
type AuthModule struct {
	Handler *handlers.UserHandler
}

func NewAuthModule(h *handlers.UserHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register", m.Handler.Register)
	rg.POST("/login", m.Handler.Login)
	rg.POST("/login/provider", m.Handler.LoginWithProvider)
	rg.POST("/logout", m.Handler.Logout)
}
