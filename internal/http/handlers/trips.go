package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttlebus/internal/http/middleware"
	"shuttlebus/internal/services"
)

// GET /api/trips
func (a *API) ListTrips(c *gin.Context) {
	trips, err := a.Trips.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

// POST /api/admin/trips
func (a *API) CreateTrip(c *gin.Context) {
	var req services.CreateTripInput
	if !BindJSONOrError(c, &req) {
		return
	}
	id, err := a.Trips.Create(c.Request.Context(), req, a.Location, middleware.CurrentUser(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "trip created", "trip_id": id})
}

// GET /api/admin/options
func (a *API) AdminOptions(c *gin.Context) {
	opts, err := a.Trips.Options(c.Request.Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

type statusRequest struct {
	Status      string  `json:"status"`
	Description *string `json:"description"`
}

// POST /api/admin/trips/:id/status
func (a *API) SetTripStatus(c *gin.Context) {
	var req statusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	err := a.Statuses.SetTripStatus(c.Request.Context(), c.Param("id"), req.Status, req.Description, middleware.CurrentUser(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trip status updated"})
}
