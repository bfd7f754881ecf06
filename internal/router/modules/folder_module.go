package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-identity-service/internal/interface/http"
	"github.com/oksasatya/go-identity-service/internal/interface/middleware"
	"github.com/oksasatya/go-identity-service/pkg/helpers"
)

// FolderModule exposes POST /api/folder/files for uploads into the caller's folder.
type FolderModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Limits  Limits
}

func NewFolderModule(h *handlers.UserHandler, jwt *helpers.JWTManager, limits Limits) *FolderModule {
	return &FolderModule{Handler: h, JWT: jwt, Limits: limits}
}

func (m *FolderModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/folder")
	g.Use(middleware.JWTAuth(m.JWT), m.Limits.perUser())
	g.POST("/files", m.Handler.Upload)
}
