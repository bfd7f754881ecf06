package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appuser "github.com/oksasatya/go-identity-service/internal/application"
	"github.com/oksasatya/go-identity-service/internal/container"
	"github.com/oksasatya/go-identity-service/internal/domain/profile"
	repo "github.com/oksasatya/go-identity-service/internal/domain/repository"
	"github.com/oksasatya/go-identity-service/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-identity-service/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-identity-service/internal/interface/http"
	"github.com/oksasatya/go-identity-service/internal/router/modules"
	"github.com/oksasatya/go-identity-service/pkg/helpers"
	"github.com/oksasatya/go-identity-service/pkg/response"
)

type UserModuleDeps struct {
	Store   repo.Store
	Service *appuser.Service
	Handler *handlers.UserHandler
}

// buildStore honours an explicitly injected store, then STORE_DRIVER.
func buildStore() repo.Store {
	if s := container.GetStore(); s != nil {
		return s
	}
	var s repo.Store
	if container.GetConfig().StoreDriver == "memory" {
		s = memory.NewStore()
	} else {
		s = pginfra.NewStore(container.GetPGPool())
	}
	container.SetStore(s)
	return s
}

// BuildService wires the identity use cases from the container singletons.
func BuildService() *appuser.Service {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	reporter := container.GetReporter()
	store := buildStore()

	profiles := profile.NewResolver(
		helpers.LetterAvatar,
		profile.WithReporter(reporter),
		profile.WithGravatarBase(cfg.GravatarBaseURL),
	)
	creds := appuser.NewCredentialStore(cfg.KDFParams(), cfg.KDFConcurrency, reporter, logger)
	provisioner := appuser.NewFolderProvisioner(store, cfg.ProvisionMaxAttempts, reporter, logger)

	return appuser.NewService(
		store,
		creds,
		profiles,
		provisioner,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		logger,
		container.GetES(),
		cfg.ESUsersIndex,
	)
}

func buildUserDeps() UserModuleDeps {
	service := BuildService()

	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		container.GetConfig().CookieDomain,
		container.GetConfig().CookieSecure,
	)

	return UserModuleDeps{
		Store:   service.Store,
		Service: service,
		Handler: handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	userDeps := buildUserDeps()
	limit := modules.Limits{Scripter: container.GetScripter(), PerMinute: cfg.RateLimitPerMinute}

	r.Add(ModuleFunc(func(rg *gin.RouterGroup) {
		rg.GET("/healthz", func(c *gin.Context) {
			response.Write(c, response.Success(c, http.StatusOK, gin.H{"store": cfg.StoreDriver}, "ok", nil))
		})
	}))
	r.Add(modules.NewAuthModule(userDeps.Handler))
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetJWT(), limit))
	r.Add(modules.NewFolderModule(userDeps.Handler, container.GetJWT(), limit))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limit))
	}
}
