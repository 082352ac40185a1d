package router

import (
	"context"
	"net/http"
	"time"

	apphttp "relocation_quiz_backend/internal/http"
	"relocation_quiz_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// New builds the gin engine, mounts shared middleware and lets every module
// register its routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				app.Logger.WithContext(c.Request.Context()).Error("readiness check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v1 := engine.Group("/api/v1")

	public := v1.Group("")
	public.Use(httpkit.NewPerMinuteLimiter(app.Config.GetPublicRateLimitPerMinute(), app.Logger).RateLimit())

	var admin *gin.RouterGroup
	if app.Config.IsAdminAPIEnabled() {
		admin = v1.Group("/admin")
		admin.Use(httpkit.AdminRequired(app.Config))
	} else {
		app.Logger.Info("admin API disabled: ADMIN_JWT_SECRET not set")
	}

	rc := &apphttp.RouterContext{
		Engine: engine,
		V1:     v1,
		Public: public,
		Admin:  admin,
		Config: app.Config,
	}
	for _, m := range app.Modules {
		m.RegisterRoutes(rc)
		app.Logger.Debug("module routes registered", "module", m.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", httpkit.HeaderRequestID},
		ExposeHeaders:    []string{httpkit.HeaderRequestID, "Retry-After"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	origins := cfg.GetCORSOrigins()
	if cfg.GetCORSAllowAll() || len(origins) == 0 {
		c.AllowAllOrigins = true
		// Wildcard origins cannot be combined with credentials.
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
	}
	return c
}
