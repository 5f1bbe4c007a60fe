package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/patungan-app/patungan-backend/internal/models"
)

// Compile-time check that MockStore implements Store.
var _ Store = (*MockStore)(nil)

// MockStore is an in-memory Store for tests. It shares the change-hub
// implementation with the SQLite store, so watch semantics (initial
// snapshot, full replacement per change, latest-wins delivery) are
// identical in tests and production.
type MockStore struct {
	mu           sync.Mutex
	bills        map[string]*models.Bill
	items        map[string][]models.Item        // keyed by bill id
	participants map[string][]models.Participant // keyed by bill id
	users        map[string]*models.User         // keyed by email
	hub          *changeHub

	// Hooks for test assertions
	UpdateAssignmentsCalled bool
	LastAssignments         map[string]int
	UpdateBillStatusCalled  bool
	LastBillStatus          models.BillStatus
	BillStatusWrites        int

	// Error injection for testing failure paths
	CreateItemErr        error
	CreateParticipantErr error
	UpdateAssignmentsErr error
	UpdatePaidErr        error
	UpdateBillStatusErr  error
	UpdateBillFieldErr   error
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		bills:        make(map[string]*models.Bill),
		items:        make(map[string][]models.Item),
		participants: make(map[string][]models.Participant),
		users:        make(map[string]*models.User),
		hub:          newChangeHub(),
	}
}

// Close implements Store.
func (m *MockStore) Close() error { return nil }

func (m *MockStore) CreateBill(_ context.Context, bill *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.Status == "" {
		bill.Status = models.StatusUnpaid
	}
	clone := *bill
	m.bills[bill.ID] = &clone
	m.notifyBillLocked(bill.ID)
	return nil
}

func (m *MockStore) GetBill(_ context.Context, billID string) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bill, ok := m.bills[billID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *bill
	return &clone, nil
}

func (m *MockStore) ListBillsByMember(_ context.Context, memberID string) ([]models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bills := []models.Bill{}
	for _, bill := range m.bills {
		for _, id := range bill.MemberIDs {
			if id == memberID {
				bills = append(bills, *bill)
				break
			}
		}
	}
	return bills, nil
}

func (m *MockStore) UpdateBillField(_ context.Context, billID, field string, value any) error {
	if m.UpdateBillFieldErr != nil {
		return m.UpdateBillFieldErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bill, ok := m.bills[billID]
	if !ok {
		return ErrNotFound
	}
	switch field {
	case "name":
		bill.Name = value.(string)
	case "tax_percent":
		bill.TaxPercent = toFloat(value)
	case "service_fee":
		bill.ServiceFee = toFloat(value)
	case "discount":
		bill.Discount = value.(string)
	default:
		return fmt.Errorf("bill field %q is not updatable", field)
	}
	m.notifyBillLocked(billID)
	return nil
}

func (m *MockStore) UpdateBillStatus(_ context.Context, billID string, status models.BillStatus) error {
	m.UpdateBillStatusCalled = true
	if m.UpdateBillStatusErr != nil {
		return m.UpdateBillStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bill, ok := m.bills[billID]
	if !ok {
		return ErrNotFound
	}
	bill.Status = status
	m.LastBillStatus = status
	m.BillStatusWrites++
	m.notifyBillLocked(billID)
	return nil
}

func (m *MockStore) DeleteBill(_ context.Context, billID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bills[billID]; !ok {
		return ErrNotFound
	}
	delete(m.bills, billID)
	delete(m.items, billID)
	delete(m.participants, billID)
	m.hub.bills.publish(billID, BillSnapshot{})
	m.hub.items.publish(billID, []models.Item{})
	m.hub.participants.publish(billID, []models.Participant{})
	return nil
}

func (m *MockStore) ListItems(_ context.Context, billID string) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.items[billID]), nil
}

func (m *MockStore) CreateItem(_ context.Context, billID string, item *models.Item) error {
	if m.CreateItemErr != nil {
		return m.CreateItemErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	m.items[billID] = append(m.items[billID], *item)
	m.notifyItemsLocked(billID)
	return nil
}

func (m *MockStore) DeleteItem(_ context.Context, billID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items[billID]
	for i, item := range items {
		if item.ID == itemID {
			m.items[billID] = append(items[:i:i], items[i+1:]...)
			m.notifyItemsLocked(billID)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockStore) ListParticipants(_ context.Context, billID string) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneParticipants(m.participants[billID]), nil
}

func (m *MockStore) GetParticipant(_ context.Context, billID, participantID string) (*models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants[billID] {
		if p.ID == participantID {
			clone := cloneParticipant(p)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) CreateParticipant(_ context.Context, billID string, p *models.Participant) error {
	if m.CreateParticipantErr != nil {
		return m.CreateParticipantErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Assignments == nil {
		p.Assignments = map[string]int{}
	}
	m.participants[billID] = append(m.participants[billID], cloneParticipant(*p))
	if bill, ok := m.bills[billID]; ok {
		bill.MemberIDs = append(bill.MemberIDs, p.ID)
		m.notifyBillLocked(billID)
	}
	m.notifyParticipantsLocked(billID)
	return nil
}

func (m *MockStore) DeleteParticipant(_ context.Context, billID, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	participants := m.participants[billID]
	for i, p := range participants {
		if p.ID == participantID {
			m.participants[billID] = append(participants[:i:i], participants[i+1:]...)
			if bill, ok := m.bills[billID]; ok {
				for j, id := range bill.MemberIDs {
					if id == participantID {
						bill.MemberIDs = append(bill.MemberIDs[:j:j], bill.MemberIDs[j+1:]...)
						break
					}
				}
				m.notifyBillLocked(billID)
			}
			m.notifyParticipantsLocked(billID)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockStore) UpdateParticipantAssignments(_ context.Context, billID, participantID string, assignments map[string]int) error {
	m.UpdateAssignmentsCalled = true
	if m.UpdateAssignmentsErr != nil {
		return m.UpdateAssignmentsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	participants := m.participants[billID]
	for i, p := range participants {
		if p.ID == participantID {
			next := map[string]int{}
			for itemID, q := range assignments {
				if q > 0 {
					next[itemID] = q
				}
			}
			participants[i].Assignments = next
			m.LastAssignments = next
			m.notifyParticipantsLocked(billID)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockStore) UpdateParticipantPaid(_ context.Context, billID, participantID string, paid bool) error {
	if m.UpdatePaidErr != nil {
		return m.UpdatePaidErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	participants := m.participants[billID]
	for i, p := range participants {
		if p.ID == participantID {
			participants[i].Paid = paid
			m.notifyParticipantsLocked(billID)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	clone := *u
	m.users[u.Email] = &clone
	return nil
}

func (m *MockStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MockStore) WatchBill(billID string) (<-chan BillSnapshot, CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var initial BillSnapshot
	if bill, ok := m.bills[billID]; ok {
		clone := *bill
		initial.Bill = &clone
	}
	return m.hub.bills.subscribe(billID, initial)
}

func (m *MockStore) WatchItems(billID string) (<-chan []models.Item, CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hub.items.subscribe(billID, cloneItems(m.items[billID]))
}

func (m *MockStore) WatchParticipants(billID string) (<-chan []models.Participant, CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hub.participants.subscribe(billID, cloneParticipants(m.participants[billID]))
}

func (m *MockStore) notifyBillLocked(billID string) {
	var snap BillSnapshot
	if bill, ok := m.bills[billID]; ok {
		clone := *bill
		snap.Bill = &clone
	}
	m.hub.bills.publish(billID, snap)
}

func (m *MockStore) notifyItemsLocked(billID string) {
	m.hub.items.publish(billID, cloneItems(m.items[billID]))
}

func (m *MockStore) notifyParticipantsLocked(billID string) {
	m.hub.participants.publish(billID, cloneParticipants(m.participants[billID]))
}

func cloneItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	return out
}

func cloneParticipants(participants []models.Participant) []models.Participant {
	out := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		out = append(out, cloneParticipant(p))
	}
	return out
}

func cloneParticipant(p models.Participant) models.Participant {
	assignments := make(map[string]int, len(p.Assignments))
	for itemID, q := range p.Assignments {
		assignments[itemID] = q
	}
	p.Assignments = assignments
	return p
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
