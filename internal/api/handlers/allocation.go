package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patungan-app/patungan-backend/internal/api/dto"
	"github.com/patungan-app/patungan-backend/internal/application/service"
)

// AllocationHandler serves the on-demand cost split.
type AllocationHandler struct {
	*Base
}

// NewAllocationHandler creates an allocation handler.
func NewAllocationHandler(svc *service.BillService, logger *slog.Logger) *AllocationHandler {
	return &AllocationHandler{Base: NewBase(svc, logger)}
}

// Get handles GET /api/bills/:id/allocation. The split is computed from
// the bill's current snapshot and never persisted.
func (h *AllocationHandler) Get(c *gin.Context) {
	billID := c.Param("id")
	results, err := h.svc.Calculate(c.Request.Context(), billID)
	if err != nil {
		h.RespondError(c, "bill", err)
		return
	}
	c.JSON(http.StatusOK, dto.AllocationResponse{
		BillID:  billID,
		Results: results,
	})
}
