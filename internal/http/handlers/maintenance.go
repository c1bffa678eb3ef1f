package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttlebus/internal/http/middleware"
)

// GET /api/maintenance and /api/admin/maintenance
func (a *API) GetMaintenance(c *gin.Context) {
	on, err := a.Maintenance.IsBlocked(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": on})
}

type maintenanceRequest struct {
	Enabled *bool `json:"enabled"`
}

// POST /api/admin/maintenance
func (a *API) SetMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Enabled == nil {
		respondError(c, http.StatusBadRequest, "validation_error", "enabled is required", gin.H{"field": "enabled"})
		return
	}
	if err := a.Maintenance.SetBlocked(c.Request.Context(), *req.Enabled, middleware.CurrentUser(c).UserID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}
