package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-identity-service/internal/interface/middleware"
)

// Limits carries the shared rate limiter backend. A nil Scripter disables limiting.
type Limits struct {
	Scripter  redis.Scripter
	PerMinute int
}

func (l Limits) perIP(max int) gin.HandlerFunc {
	return middleware.RateLimit(l.Scripter, max, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
}

func (l Limits) perUser() gin.HandlerFunc {
	return middleware.RateLimit(l.Scripter, l.PerMinute, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP())
}
