package handler

import (
	"errors"
	"net/http"

	"stokledger/internal/middleware"
	"stokledger/internal/service"
	"stokledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// authFromContext assembles the explicit AuthContext the service layer
// requires from values the middleware chain resolved.
func authFromContext(c *gin.Context) service.AuthContext {
	auth := service.AuthContext{}
	if v, ok := c.Value(middleware.CtxUserID).(uuid.UUID); ok {
		auth.ActorID = v
	}
	if v, ok := c.Value(middleware.CtxOrgID).(uuid.UUID); ok {
		auth.OrganizationID = v
	}
	auth.Role = c.GetString(middleware.CtxMemberRole)
	return auth
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var insufficient *service.InsufficientStockError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, validation.Message))
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, insufficient.Error()))
	case errors.Is(err, service.ErrOutOfStock):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
