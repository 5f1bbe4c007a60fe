// Package handlers implements the HTTP endpoints. Each handler translates
// one route into a service call and maps the outcome onto the dto error
// codes. Handlers never touch the store directly.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patungan-app/patungan-backend/internal/api/dto"
	"github.com/patungan-app/patungan-backend/internal/application/service"
	"github.com/patungan-app/patungan-backend/internal/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc    *service.BillService
	logger *slog.Logger
}

// NewBase creates a base handler around the bill service.
func NewBase(svc *service.BillService, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{svc: svc, logger: logger}
}

// RespondError maps a service error onto the matching HTTP status and
// APIError code. Unknown errors are logged and returned as a generic 500
// without leaking internals.
func (b *Base) RespondError(c *gin.Context, resource string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError(resource))
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		b.logger.Error("handler error", "resource", resource, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
	}
}
