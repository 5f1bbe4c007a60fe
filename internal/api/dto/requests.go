package dto

// CreateBillRequest is the body for POST /api/bills.
type CreateBillRequest struct {
	Name       string  `json:"name" binding:"required"`
	TaxPercent float64 `json:"tax_percent"`
	ServiceFee float64 `json:"service_fee"`
	Discount   string  `json:"discount"`
	OwnerID    string  `json:"owner_id" binding:"required"`
}

// UpdateBillRequest is the body for PATCH /api/bills/:id. Exactly one
// mutable field and its new value.
type UpdateBillRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

// CreateItemRequest is the body for POST /api/bills/:id/items.
type CreateItemRequest struct {
	Name      string  `json:"name" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// CreateParticipantRequest is the body for POST /api/bills/:id/participants.
// Type selects the variant: "guest" needs name, "registered" needs email.
type CreateParticipantRequest struct {
	Type  string `json:"type" binding:"required"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AdjustAssignmentRequest moves a participant's claim on one item by a
// single step.
type AdjustAssignmentRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Delta  int    `json:"delta" binding:"required"`
}

// SetPaidRequest is the body for PUT .../participants/:participantID/paid.
type SetPaidRequest struct {
	Paid bool `json:"paid"`
}
