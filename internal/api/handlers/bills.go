package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patungan-app/patungan-backend/internal/api/dto"
	"github.com/patungan-app/patungan-backend/internal/application/service"
)

// BillsHandler serves the bill CRUD endpoints.
type BillsHandler struct {
	*Base
}

// NewBillsHandler creates a bills handler.
func NewBillsHandler(svc *service.BillService, logger *slog.Logger) *BillsHandler {
	return &BillsHandler{Base: NewBase(svc, logger)}
}

// Create handles POST /api/bills.
func (h *BillsHandler) Create(c *gin.Context) {
	var req dto.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	bill, err := h.svc.CreateBill(c.Request.Context(), service.NewBill{
		Name:       req.Name,
		TaxPercent: req.TaxPercent,
		ServiceFee: req.ServiceFee,
		Discount:   req.Discount,
		OwnerID:    req.OwnerID,
	})
	if err != nil {
		h.RespondError(c, "bill", err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// List handles GET /api/bills?member=<id>.
func (h *BillsHandler) List(c *gin.Context) {
	memberID := c.Query("member")
	bills, err := h.svc.ListBills(c.Request.Context(), memberID)
	if err != nil {
		h.RespondError(c, "bills", err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

// Get handles GET /api/bills/:id and returns the bill with both its
// collections.
func (h *BillsHandler) Get(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.RespondError(c, "bill", err)
		return
	}
	c.JSON(http.StatusOK, dto.BillDetailResponse{
		Bill:         overview.Bill,
		Items:        overview.Items,
		Participants: overview.Participants,
	})
}

// Patch handles PATCH /api/bills/:id, updating a single mutable field.
func (h *BillsHandler) Patch(c *gin.Context) {
	var req dto.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	if err := h.svc.UpdateBillField(c.Request.Context(), c.Param("id"), req.Field, req.Value); err != nil {
		h.RespondError(c, "bill", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/bills/:id.
func (h *BillsHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteBill(c.Request.Context(), c.Param("id")); err != nil {
		h.RespondError(c, "bill", err)
		return
	}
	c.Status(http.StatusNoContent)
}
