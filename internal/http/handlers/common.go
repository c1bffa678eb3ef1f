package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttlebus/internal/domain"
)

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "empty_body", "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload", err.Error())
		return false
	}
	return true
}

func asValidation(err error, target *domain.ValidationError) bool {
	return errors.As(err, target)
}
