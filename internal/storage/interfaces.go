// Package storage provides the persistent store for bills, items and
// participants, and the change-notification streams the rest of the system
// reads them through. The store is the single source of truth: writers issue
// field-level writes and last write wins, readers get full replacement
// snapshots per collection on every change.
package storage

import (
	"context"
	"errors"

	"github.com/patungan-app/patungan-backend/internal/models"
)

// ErrNotFound is returned when a bill, participant or user does not exist.
var ErrNotFound = errors.New("not found")

// CancelFunc releases a watch subscription. After it returns, the
// subscription's channel is closed and no further snapshots arrive.
type CancelFunc func()

// BillSnapshot is one delivery on a bill watch. A nil Bill means the bill is
// absent (deleted, or never existed).
type BillSnapshot struct {
	Bill *models.Bill
}

// Store is the complete storage interface. The composition allows tests and
// services to depend on the slice they need, and swapping the SQLite
// implementation for another backend touches nothing above this package.
type Store interface {
	BillStore
	ItemStore
	ParticipantStore
	UserStore
	Watcher
	Close() error
}

// BillStore handles bill records.
type BillStore interface {
	// CreateBill persists a new bill, populating ID, CreatedAt and the
	// initial unpaid status.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by id. Returns ErrNotFound if absent.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBillsByMember returns the bills a participant id has access to,
	// newest first.
	ListBillsByMember(ctx context.Context, memberID string) ([]models.Bill, error)

	// UpdateBillField sets a single mutable bill field: "name",
	// "tax_percent", "service_fee" or "discount". Unknown fields or
	// mismatched value types are rejected before any write.
	UpdateBillField(ctx context.Context, billID, field string, value any) error

	// UpdateBillStatus sets the derived paid/unpaid status. The write is
	// idempotent.
	UpdateBillStatus(ctx context.Context, billID string, status models.BillStatus) error

	// DeleteBill removes a bill and cascades to its items, participants
	// and assignments.
	DeleteBill(ctx context.Context, billID string) error
}

// ItemStore handles a bill's line items.
type ItemStore interface {
	// ListItems returns the bill's items in creation order.
	ListItems(ctx context.Context, billID string) ([]models.Item, error)

	// CreateItem persists a new item, populating its ID.
	CreateItem(ctx context.Context, billID string, item *models.Item) error

	// DeleteItem removes an item. Assignments referencing it are left in
	// place and become inert; allocation treats them as zero.
	DeleteItem(ctx context.Context, billID, itemID string) error
}

// ParticipantStore handles a bill's participants and their assignments.
type ParticipantStore interface {
	// ListParticipants returns the bill's participants in creation order.
	ListParticipants(ctx context.Context, billID string) ([]models.Participant, error)

	// GetParticipant retrieves one participant. Returns ErrNotFound if
	// absent.
	GetParticipant(ctx context.Context, billID, participantID string) (*models.Participant, error)

	// CreateParticipant persists a new participant, populating its ID, and
	// appends that id to the bill's member set.
	CreateParticipant(ctx context.Context, billID string, p *models.Participant) error

	// DeleteParticipant removes a participant and their assignments.
	DeleteParticipant(ctx context.Context, billID, participantID string) error

	// UpdateParticipantAssignments replaces the participant's whole
	// assignment map. Entries with non-positive quantities are not stored.
	UpdateParticipantAssignments(ctx context.Context, billID, participantID string, assignments map[string]int) error

	// UpdateParticipantPaid flips the participant's paid flag.
	UpdateParticipantPaid(ctx context.Context, billID, participantID string, paid bool) error
}

// UserStore handles registered user accounts, used to resolve registered
// participants by email.
type UserStore interface {
	// CreateUser persists a user account, populating its ID.
	CreateUser(ctx context.Context, u *models.User) error

	// FindUserByEmail resolves a user by email. Returns ErrNotFound when
	// no account matches.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Watcher exposes the live snapshot streams. Each subscription immediately
// receives the current state, then a full replacement snapshot after every
// change to its collection. Delivery is latest-wins: a slow consumer sees
// the newest snapshot, not every intermediate one. The three streams carry
// no cross-collection transactional guarantee.
type Watcher interface {
	WatchBill(billID string) (<-chan BillSnapshot, CancelFunc)
	WatchItems(billID string) (<-chan []models.Item, CancelFunc)
	WatchParticipants(billID string) (<-chan []models.Participant, CancelFunc)
}
