package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"campusreach/internal/auth"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Handler  *Handler
	Tokens   *auth.TokenService
	BasePath string
	// Middleware runs before routing, after panic recovery.
	Middleware []gin.HandlerFunc
	// Metrics, when set, is served at /metrics outside BasePath.
	Metrics http.Handler
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Ctx(c.Request.Context()).Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("request panicked")
		abortError(c, http.StatusInternalServerError, "Server error")
	}))
	r.Use(cfg.Middleware...)

	r.NoMethod(func(c *gin.Context) { abortError(c, http.StatusMethodNotAllowed, "Method not allowed") })
	r.NoRoute(func(c *gin.Context) { abortError(c, http.StatusNotFound, "Not found") })

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	h := cfg.Handler
	api := r.Group(cfg.BasePath)

	api.GET("/health", h.Health)
	api.GET("/health/stores", h.HealthStores)
	api.POST("/auth/login", h.Login)
	api.GET("/event-public", h.PublicEvent)
	api.POST("/submissions", h.CreateSubmission)
	api.POST("/upload", h.Upload)

	authed := api.Group("", auth.RequireAuth(cfg.Tokens))
	authed.GET("/events", h.ListEvents)
	authed.POST("/events", h.CreateEvent)
	authed.GET("/submissions", h.ListSubmissions)
	authed.GET("/view-screenshot", h.ViewScreenshot)

	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/ambassadors", h.ListAmbassadors)
	admin.POST("/ambassadors", h.CreateAmbassador)
	admin.GET("/leaderboard", h.Leaderboard)

	return r
}
