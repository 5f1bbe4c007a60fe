// Package models defines the core domain types for the bill-splitting
// backend: bills, their line items, the participants sharing them, and the
// registered users a participant can be linked to.
//
// The types here are plain data. Invariants that involve more than one
// record (claimed shares vs item quantity, the all-paid bill status) are
// enforced or recomputed by the domain and service packages, not by the
// models themselves.
package models

// BillStatus is the derived payment status of a bill.
type BillStatus string

const (
	// StatusPaid means every participant on the bill has settled up.
	StatusPaid BillStatus = "paid"

	// StatusUnpaid means at least one participant still owes money.
	StatusUnpaid BillStatus = "unpaid"
)

// Bill is the top-level shared expense record.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string `json:"id"`

	// Name is the human-readable title of the bill.
	Name string `json:"name"`

	// TaxPercent is the tax rate applied to the bill subtotal, in percent.
	TaxPercent float64 `json:"tax_percent"`

	// ServiceFee is a flat fee in currency units, distributed
	// proportionally across participants at calculation time.
	ServiceFee float64 `json:"service_fee"`

	// Discount is a raw discount specifier: "10%" for a percentage of the
	// subtotal or "5000" for an absolute amount. Empty means no discount.
	// Parsing is forgiving; unparseable specifiers resolve to zero.
	Discount string `json:"discount,omitempty"`

	// Status is derived from the participants' paid flags. It is recomputed
	// whenever a paid flag flips and is never set independently.
	Status BillStatus `json:"status"`

	// OwnerID identifies the user who created the bill.
	OwnerID string `json:"owner_id"`

	// MemberIDs is the set of participant ids with access to the bill.
	MemberIDs []string `json:"member_ids,omitempty"`

	// CreatedAt is the Unix timestamp when the bill was created.
	CreatedAt int64 `json:"created_at"`
}

// Item is a purchased line belonging to a bill. Items are add/delete only;
// deleting an item leaves any participant assignments referencing it
// dangling, and those are treated as zero during allocation.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// Name describes the item (e.g. "Nasi Goreng"). Never empty.
	Name string `json:"name"`

	// UnitPrice is the price of a single unit, >= 0.
	UnitPrice float64 `json:"unit_price"`

	// Quantity is the number of units purchased, >= 1.
	Quantity int `json:"quantity"`
}

// Total returns the item's full value, unit price times quantity.
func (i Item) Total() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Participant is a person sharing in a bill.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string `json:"id"`

	// Name is the display name shown on the bill. For registered
	// participants it is copied from the linked user at creation time and
	// not kept in sync afterwards.
	Name string `json:"name"`

	// Assignments maps item id to the quantity this participant claims.
	// Stored quantities are always >= 1; a zero claim is represented by
	// the absence of the key.
	Assignments map[string]int `json:"assignments"`

	// Paid records whether this participant has settled their share.
	Paid bool `json:"paid"`

	// AccountID links a registered participant to a user account.
	// Empty for guests.
	AccountID string `json:"account_id,omitempty"`

	// Email is the contact email a registered participant was resolved by.
	// Empty for guests.
	Email string `json:"email,omitempty"`
}

// User is a registered account that a participant can be linked to.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewParticipant describes one of the two ways a participant is created:
// a guest with just a display name, or a registered participant resolved
// from an existing user account. The sealed interface keeps the two
// construction paths exhaustive at the type level.
type NewParticipant interface {
	participantSpec()
}

// Guest creates a participant with a display name and no linked account.
type Guest struct {
	Name string
}

// Registered creates a participant linked to an existing user account,
// duplicating that account's display name at creation time.
type Registered struct {
	Name      string
	Email     string
	AccountID string
}

func (Guest) participantSpec()      {}
func (Registered) participantSpec() {}

// AllPaid reports whether every participant has settled up. An empty
// participant list counts as not all paid: a bill with nobody on it has
// nothing to mark as settled.
func AllPaid(participants []Participant) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		if !p.Paid {
			return false
		}
	}
	return true
}

// DeriveStatus maps the participants' paid flags to a bill status.
func DeriveStatus(participants []Participant) BillStatus {
	if AllPaid(participants) {
		return StatusPaid
	}
	return StatusUnpaid
}
