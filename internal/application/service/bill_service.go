// Package service implements the operations behind the bill API: validated
// mutations against the store, the payment-status aggregation, and the
// on-demand allocation calculation.
//
// Every mutation is a plain write to the store; nothing here caches or
// optimistically updates local state, so a failed write leaves the system
// exactly as the last authoritative snapshot described it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/patungan-app/patungan-backend/internal/domain/allocator"
	"github.com/patungan-app/patungan-backend/internal/domain/assignment"
	"github.com/patungan-app/patungan-backend/internal/models"
	"github.com/patungan-app/patungan-backend/internal/observability"
	"github.com/patungan-app/patungan-backend/internal/storage"
)

// ErrValidation marks inputs rejected before any write was attempted. The
// caller owns user-facing messaging; the wrapped text says what was wrong.
var ErrValidation = errors.New("invalid input")

// NewBill is the validated input for creating a bill.
type NewBill struct {
	Name       string  `validate:"required"`
	TaxPercent float64 `validate:"gte=0"`
	ServiceFee float64 `validate:"gte=0"`
	Discount   string
	OwnerID    string `validate:"required"`
}

// NewItem is the validated input for adding an item to a bill.
type NewItem struct {
	Name      string  `validate:"required"`
	UnitPrice float64 `validate:"gte=0"`
	Quantity  int     `validate:"gte=1"`
}

// Overview is a read of a bill and both its collections, assembled from
// three independent reads with no transactional guarantee between them.
type Overview struct {
	Bill         *models.Bill
	Items        []models.Item
	Participants []models.Participant
}

// BillService coordinates bill operations against a store.
type BillService struct {
	store    storage.Store
	logger   *slog.Logger
	validate *validator.Validate
}

// NewBillService creates a BillService. A nil logger falls back to the
// default slog logger.
func NewBillService(store storage.Store, logger *slog.Logger) *BillService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillService{
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

// CreateBill validates and persists a new bill owned by the given user.
func (s *BillService) CreateBill(ctx context.Context, input NewBill) (*models.Bill, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	bill := &models.Bill{
		Name:       input.Name,
		TaxPercent: input.TaxPercent,
		ServiceFee: input.ServiceFee,
		Discount:   input.Discount,
		OwnerID:    input.OwnerID,
	}
	if err := s.store.CreateBill(ctx, bill); err != nil {
		s.logger.Error("create bill failed", "error", err)
		return nil, err
	}
	observability.BillWrites.WithLabelValues("create_bill").Inc()
	s.logger.Info("bill created", "bill_id", bill.ID, "owner_id", bill.OwnerID)
	return bill, nil
}

// Overview reads the bill and its collections. Returns storage.ErrNotFound
// when the bill is absent.
func (s *BillService) Overview(ctx context.Context, billID string) (*Overview, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, billID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, billID)
	if err != nil {
		return nil, err
	}
	return &Overview{Bill: bill, Items: items, Participants: participants}, nil
}

// ListBills returns the bills a member has access to.
func (s *BillService) ListBills(ctx context.Context, memberID string) ([]models.Bill, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id required", ErrValidation)
	}
	return s.store.ListBillsByMember(ctx, memberID)
}

// UpdateBillField updates one mutable bill field after validating the value
// against that field's constraints.
func (s *BillService) UpdateBillField(ctx context.Context, billID, field string, value any) error {
	switch field {
	case "name":
		name, ok := value.(string)
		if !ok || name == "" {
			return fmt.Errorf("%w: name must be a non-empty string", ErrValidation)
		}
	case "tax_percent", "service_fee":
		n, ok := value.(float64)
		if !ok || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrValidation, field)
		}
	case "discount":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: discount must be a string specifier", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: bill field %q is not updatable", ErrValidation, field)
	}

	if err := s.store.UpdateBillField(ctx, billID, field, value); err != nil {
		s.logger.Error("update bill field failed", "bill_id", billID, "field", field, "error", err)
		return err
	}
	observability.BillWrites.WithLabelValues("update_bill").Inc()
	return nil
}

// DeleteBill removes a bill and everything it owns.
func (s *BillService) DeleteBill(ctx context.Context, billID string) error {
	if err := s.store.DeleteBill(ctx, billID); err != nil {
		return err
	}
	observability.BillWrites.WithLabelValues("delete_bill").Inc()
	s.logger.Info("bill deleted", "bill_id", billID)
	return nil
}

// AddItem validates and persists a new line item.
func (s *BillService) AddItem(ctx context.Context, billID string, input NewItem) (*models.Item, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.store.GetBill(ctx, billID); err != nil {
		return nil, err
	}

	item := &models.Item{
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		Quantity:  input.Quantity,
	}
	if err := s.store.CreateItem(ctx, billID, item); err != nil {
		s.logger.Error("add item failed", "bill_id", billID, "error", err)
		return nil, err
	}
	observability.BillWrites.WithLabelValues("create_item").Inc()
	return item, nil
}

// RemoveItem deletes an item. Assignments referencing it become inert and
// are treated as zero by the next calculation.
func (s *BillService) RemoveItem(ctx context.Context, billID, itemID string) error {
	if err := s.store.DeleteItem(ctx, billID, itemID); err != nil {
		return err
	}
	observability.BillWrites.WithLabelValues("delete_item").Inc()
	return nil
}

// AddParticipant creates a participant from one of the two construction
// variants. A guest needs only a display name. A registered participant is
// resolved by email against the user accounts; the account's display name
// is copied at creation time and not kept in sync afterwards.
func (s *BillService) AddParticipant(ctx context.Context, billID string, spec models.NewParticipant) (*models.Participant, error) {
	if _, err := s.store.GetBill(ctx, billID); err != nil {
		return nil, err
	}

	var p *models.Participant
	switch v := spec.(type) {
	case models.Guest:
		if v.Name == "" {
			return nil, fmt.Errorf("%w: guest name required", ErrValidation)
		}
		p = &models.Participant{Name: v.Name}
	case models.Registered:
		resolved := v
		if resolved.AccountID == "" {
			if resolved.Email == "" {
				return nil, fmt.Errorf("%w: registered participant email required", ErrValidation)
			}
			user, err := s.store.FindUserByEmail(ctx, resolved.Email)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, fmt.Errorf("%w: no account for email %s", ErrValidation, resolved.Email)
				}
				return nil, err
			}
			resolved = models.Registered{Name: user.Name, Email: user.Email, AccountID: user.ID}
		}
		p = &models.Participant{Name: resolved.Name, Email: resolved.Email, AccountID: resolved.AccountID}
	default:
		return nil, fmt.Errorf("%w: unknown participant variant %T", ErrValidation, spec)
	}

	p.Assignments = map[string]int{}
	if err := s.store.CreateParticipant(ctx, billID, p); err != nil {
		s.logger.Error("add participant failed", "bill_id", billID, "error", err)
		return nil, err
	}
	observability.BillWrites.WithLabelValues("create_participant").Inc()
	return p, nil
}

// RemoveParticipant deletes a participant from the bill.
func (s *BillService) RemoveParticipant(ctx context.Context, billID, participantID string) error {
	if err := s.store.DeleteParticipant(ctx, billID, participantID); err != nil {
		return err
	}
	observability.BillWrites.WithLabelValues("delete_participant").Inc()
	return nil
}

// AdjustAssignment moves a participant's claim on an item by one step and
// writes the whole updated map back. The participant's current map is read
// from the store first, so concurrent edits resolve as last write wins at
// the map level, and a failed write changes nothing locally.
func (s *BillService) AdjustAssignment(ctx context.Context, billID, participantID, itemID string, delta int) (map[string]int, error) {
	if delta != 1 && delta != -1 {
		return nil, fmt.Errorf("%w: delta must be +1 or -1", ErrValidation)
	}
	if itemID == "" {
		return nil, fmt.Errorf("%w: item id required", ErrValidation)
	}

	p, err := s.store.GetParticipant(ctx, billID, participantID)
	if err != nil {
		return nil, err
	}

	next := assignment.Adjust(p.Assignments, itemID, delta)
	if err := s.store.UpdateParticipantAssignments(ctx, billID, participantID, next); err != nil {
		s.logger.Error("assignment write failed", "bill_id", billID, "participant_id", participantID, "error", err)
		return nil, err
	}
	observability.BillWrites.WithLabelValues("update_assignments").Inc()
	return next, nil
}

// MarkPaid flags a participant as settled, then re-derives the bill status
// from the post-update participant list: the flag just written plus the
// last known flags of everyone else. When that makes it unanimous, the bill
// is marked paid. Two near-simultaneous calls may both see "all paid" and
// both write the status; the write is idempotent so the race is harmless.
func (s *BillService) MarkPaid(ctx context.Context, billID, participantID string) error {
	if err := s.store.UpdateParticipantPaid(ctx, billID, participantID, true); err != nil {
		return err
	}
	observability.BillWrites.WithLabelValues("update_paid").Inc()

	participants, err := s.store.ListParticipants(ctx, billID)
	if err != nil {
		return err
	}
	for i := range participants {
		if participants[i].ID == participantID {
			participants[i].Paid = true
		}
	}
	if models.AllPaid(participants) {
		if err := s.store.UpdateBillStatus(ctx, billID, models.StatusPaid); err != nil {
			return err
		}
		s.logger.Info("bill fully paid", "bill_id", billID)
	}
	return nil
}

// CancelPaid clears a participant's paid flag. Un-paying any single
// participant is always enough to invalidate "all paid", so when the bill
// currently reads paid it is reset without re-checking the others.
func (s *BillService) CancelPaid(ctx context.Context, billID, participantID string) error {
	if err := s.store.UpdateParticipantPaid(ctx, billID, participantID, false); err != nil {
		return err
	}
	observability.BillWrites.WithLabelValues("update_paid").Inc()

	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return err
	}
	if bill.Status == models.StatusPaid {
		return s.store.UpdateBillStatus(ctx, billID, models.StatusUnpaid)
	}
	return nil
}

// Calculate runs the allocation engine over the bill's current snapshot.
// Results are derived on demand and never stored.
func (s *BillService) Calculate(ctx context.Context, billID string) ([]allocator.Result, error) {
	overview, err := s.Overview(ctx, billID)
	if err != nil {
		return nil, err
	}

	grandSubtotal := allocator.GrandSubtotal(overview.Items)
	terms := allocator.Terms{
		TaxPercent:     overview.Bill.TaxPercent,
		ServiceFee:     overview.Bill.ServiceFee,
		DiscountAmount: allocator.ResolveDiscount(grandSubtotal, overview.Bill.Discount),
	}

	results := allocator.Allocate(overview.Participants, overview.Items, terms)
	observability.AllocationsComputed.Inc()
	s.logger.Debug("allocation computed",
		"bill_id", billID,
		"participants", len(results),
		"grand_subtotal", grandSubtotal,
	)
	return results, nil
}
