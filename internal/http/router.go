package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "shuttlebus/internal/config"
	"shuttlebus/internal/domain"
	h "shuttlebus/internal/http/handlers"
	"shuttlebus/internal/http/middleware"
	"shuttlebus/internal/metrics"
	"shuttlebus/internal/utils"
)

func NewRouter(env intconfig.Env, a *h.API) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Metrics(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Log().Warn().Err(err).Msg("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", a.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", a.Login)
		auth.POST("/register", a.Register)

		// Public reads
		api.GET("/trips", a.ListTrips)
		api.GET("/maintenance", a.GetMaintenance)

		// Reservations
		reservations := api.Group("/reservations", middleware.Auth(env.JWTSecret))
		reservations.POST("", a.CreateReservation)
		reservations.GET("/mine", a.MyReservations)
		reservations.POST("/:id/cancel", a.CancelReservation)
		reservations.GET("/:id/e-ticket", a.ReservationETicket)

		// Admin
		admin := api.Group("/admin", middleware.Auth(env.JWTSecret), middleware.RequireRoles(domain.RoleAdmin))
		admin.GET("/options", a.AdminOptions)
		admin.POST("/trips", a.CreateTrip)
		admin.POST("/trips/:id/status", a.SetTripStatus)
		admin.DELETE("/reservations/:id", a.ForceDeleteReservation)
		admin.GET("/maintenance", a.GetMaintenance)
		admin.POST("/maintenance", a.SetMaintenance)
	}

	h.SetRouter(r)
	return r
}
