package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patungan-app/patungan-backend/internal/api/dto"
	"github.com/patungan-app/patungan-backend/internal/application/service"
	"github.com/patungan-app/patungan-backend/internal/models"
)

// ParticipantsHandler serves the participant endpoints under a bill,
// including assignment adjustments and paid flags.
type ParticipantsHandler struct {
	*Base
}

// NewParticipantsHandler creates a participants handler.
func NewParticipantsHandler(svc *service.BillService, logger *slog.Logger) *ParticipantsHandler {
	return &ParticipantsHandler{Base: NewBase(svc, logger)}
}

// Create handles POST /api/bills/:id/participants. The request type field
// selects the guest or registered variant.
func (h *ParticipantsHandler) Create(c *gin.Context) {
	var req dto.CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	var spec models.NewParticipant
	switch req.Type {
	case "guest":
		spec = models.Guest{Name: req.Name}
	case "registered":
		spec = models.Registered{Name: req.Name, Email: req.Email}
	default:
		c.JSON(http.StatusBadRequest, dto.ValidationError("type must be guest or registered"))
		return
	}

	p, err := h.svc.AddParticipant(c.Request.Context(), c.Param("id"), spec)
	if err != nil {
		h.RespondError(c, "participant", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Delete handles DELETE /api/bills/:id/participants/:participantID.
func (h *ParticipantsHandler) Delete(c *gin.Context) {
	if err := h.svc.RemoveParticipant(c.Request.Context(), c.Param("id"), c.Param("participantID")); err != nil {
		h.RespondError(c, "participant", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustAssignment handles POST .../participants/:participantID/assignments.
func (h *ParticipantsHandler) AdjustAssignment(c *gin.Context) {
	var req dto.AdjustAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	participantID := c.Param("participantID")
	next, err := h.svc.AdjustAssignment(c.Request.Context(), c.Param("id"), participantID, req.ItemID, req.Delta)
	if err != nil {
		h.RespondError(c, "assignment", err)
		return
	}
	c.JSON(http.StatusOK, dto.AssignmentsResponse{
		ParticipantID: participantID,
		Assignments:   next,
	})
}

// SetPaid handles PUT .../participants/:participantID/paid. Setting the
// flag may flip the bill status as a side effect; clearing it resets a
// settled bill.
func (h *ParticipantsHandler) SetPaid(c *gin.Context) {
	var req dto.SetPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	billID := c.Param("id")
	participantID := c.Param("participantID")

	var err error
	if req.Paid {
		err = h.svc.MarkPaid(c.Request.Context(), billID, participantID)
	} else {
		err = h.svc.CancelPaid(c.Request.Context(), billID, participantID)
	}
	if err != nil {
		h.RespondError(c, "participant", err)
		return
	}
	c.Status(http.StatusNoContent)
}
