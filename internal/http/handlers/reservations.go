package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttlebus/internal/http/middleware"
)

type createReservationRequest struct {
	TripID string `json:"trip_id"`
}

// POST /api/reservations
func (a *API) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := a.Reservations.Create(c.Request.Context(), req.TripID, middleware.CurrentUser(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/reservations/mine
func (a *API) MyReservations(c *gin.Context) {
	out, err := a.Reservations.ListMine(c.Request.Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/reservations/:id/cancel
func (a *API) CancelReservation(c *gin.Context) {
	if err := a.Reservations.Cancel(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).UserID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reservation cancelled"})
}

// GET /api/reservations/:id/e-ticket
func (a *API) ReservationETicket(c *gin.Context) {
	pdfBytes, filename, err := a.Docs.GenerateETicket(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// DELETE /api/admin/reservations/:id
func (a *API) ForceDeleteReservation(c *gin.Context) {
	if err := a.Reservations.ForceDelete(c.Request.Context(), c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reservation deleted"})
}
