package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patungan-app/patungan-backend/internal/api/dto"
	"github.com/patungan-app/patungan-backend/internal/application/service"
)

// ItemsHandler serves the item endpoints under a bill.
type ItemsHandler struct {
	*Base
}

// NewItemsHandler creates an items handler.
func NewItemsHandler(svc *service.BillService, logger *slog.Logger) *ItemsHandler {
	return &ItemsHandler{Base: NewBase(svc, logger)}
}

// Create handles POST /api/bills/:id/items.
func (h *ItemsHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), c.Param("id"), service.NewItem{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.RespondError(c, "item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Delete handles DELETE /api/bills/:id/items/:itemID.
func (h *ItemsHandler) Delete(c *gin.Context) {
	if err := h.svc.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemID")); err != nil {
		h.RespondError(c, "item", err)
		return
	}
	c.Status(http.StatusNoContent)
}
