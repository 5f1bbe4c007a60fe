package dto

import (
	"github.com/patungan-app/patungan-backend/internal/domain/allocator"
	"github.com/patungan-app/patungan-backend/internal/models"
)

// BillDetailResponse is the full read of one bill: the bill record plus
// both of its collections. The model types already carry wire-ready json
// tags, so they are embedded rather than mirrored.
type BillDetailResponse struct {
	Bill         *models.Bill         `json:"bill"`
	Items        []models.Item        `json:"items"`
	Participants []models.Participant `json:"participants"`
}

// AssignmentsResponse returns a participant's full claim map after an
// adjustment.
type AssignmentsResponse struct {
	ParticipantID string         `json:"participant_id"`
	Assignments   map[string]int `json:"assignments"`
}

// AllocationResponse is the result of running the cost split for a bill.
type AllocationResponse struct {
	BillID  string             `json:"bill_id"`
	Results []allocator.Result `json:"results"`
}

// SnapshotMessage is the payload the live feed pushes on every change.
// Loading is true only before the first authoritative read arrives.
type SnapshotMessage struct {
	Type         string               `json:"type"`
	Bill         *models.Bill         `json:"bill"`
	Items        []models.Item        `json:"items"`
	Participants []models.Participant `json:"participants"`
	Loading      bool                 `json:"loading"`
}
