package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/patungan-app/patungan-backend/internal/domain/assignment"
	"github.com/patungan-app/patungan-backend/internal/models"
)

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// billFields whitelists the mutable bill columns for UpdateBillField and
// checks the value type each one accepts.
var billFields = map[string]func(any) bool{
	"name":        func(v any) bool { _, ok := v.(string); return ok },
	"tax_percent": isNumeric,
	"service_fee": isNumeric,
	"discount":    func(v any) bool { _, ok := v.(string); return ok },
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64:
		return true
	}
	return false
}

// SQLiteStore implements Store using SQLite. Every successful write re-reads
// the affected collection and broadcasts it through the change hub, so
// watchers observe the authoritative post-write state rather than an
// optimistic local mutation.
type SQLiteStore struct {
	db  *sql.DB
	hub *changeHub
}

// New creates a SQLiteStore at the given path, creating parent directories
// and running migrations.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, hub: newChangeHub()}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBill persists a new bill and its member set.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}
	if bill.Status == "" {
		bill.Status = models.StatusUnpaid
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO bills (id, name, tax_percent, service_fee, discount, status, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		bill.ID, bill.Name, bill.TaxPercent, bill.ServiceFee, bill.Discount, string(bill.Status), bill.OwnerID, bill.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	for _, memberID := range bill.MemberIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bill_members (bill_id, member_id) VALUES (?, ?)",
			bill.ID, memberID,
		); err != nil {
			return fmt.Errorf("failed to insert bill member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifyBill(bill.ID)
	return nil
}

// GetBill retrieves a bill, including its member-id set.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill := &models.Bill{}
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, tax_percent, service_fee, discount, status, owner_id, created_at FROM bills WHERE id = ?",
		billID,
	).Scan(&bill.ID, &bill.Name, &bill.TaxPercent, &bill.ServiceFee, &bill.Discount, &status, &bill.OwnerID, &bill.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	bill.Status = models.BillStatus(status)

	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id FROM bill_members WHERE bill_id = ?", billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, fmt.Errorf("failed to scan bill member: %w", err)
		}
		bill.MemberIDs = append(bill.MemberIDs, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill members: %w", err)
	}

	return bill, nil
}

// ListBillsByMember returns the bills a participant id can access, newest
// first.
func (s *SQLiteStore) ListBillsByMember(ctx context.Context, memberID string) ([]models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.name, b.tax_percent, b.service_fee, b.discount, b.status, b.owner_id, b.created_at
		 FROM bills b
		 JOIN bill_members m ON m.bill_id = b.id
		 WHERE m.member_id = ?
		 ORDER BY b.created_at DESC, b.id`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := []models.Bill{}
	for rows.Next() {
		var bill models.Bill
		var status string
		if err := rows.Scan(&bill.ID, &bill.Name, &bill.TaxPercent, &bill.ServiceFee, &bill.Discount, &status, &bill.OwnerID, &bill.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bill.Status = models.BillStatus(status)
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

// UpdateBillField sets one mutable bill field.
func (s *SQLiteStore) UpdateBillField(ctx context.Context, billID, field string, value any) error {
	accepts, ok := billFields[field]
	if !ok {
		return fmt.Errorf("bill field %q is not updatable", field)
	}
	if !accepts(value) {
		return fmt.Errorf("invalid value type for bill field %q", field)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE bills SET %s = ? WHERE id = ?", field), value, billID)
	if err != nil {
		return fmt.Errorf("failed to update bill field: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.notifyBill(billID)
	return nil
}

// UpdateBillStatus sets the derived paid/unpaid status.
func (s *SQLiteStore) UpdateBillStatus(ctx context.Context, billID string, status models.BillStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bills SET status = ? WHERE id = ?", string(status), billID)
	if err != nil {
		return fmt.Errorf("failed to update bill status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.notifyBill(billID)
	return nil
}

// DeleteBill removes a bill; items, participants, assignments and the member
// set go with it.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.hub.bills.publish(billID, BillSnapshot{})
	s.hub.items.publish(billID, []models.Item{})
	s.hub.participants.publish(billID, []models.Participant{})
	return nil
}

// ListItems returns the bill's items in creation order.
func (s *SQLiteStore) ListItems(ctx context.Context, billID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, unit_price, quantity FROM items WHERE bill_id = ? ORDER BY created_at, id",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// CreateItem persists a new item on the bill.
func (s *SQLiteStore) CreateItem(ctx context.Context, billID string, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO items (id, bill_id, name, unit_price, quantity, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		item.ID, billID, item.Name, item.UnitPrice, item.Quantity, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	s.notifyItems(billID)
	return nil
}

// DeleteItem removes an item. Assignment rows referencing it stay behind as
// inert entries.
func (s *SQLiteStore) DeleteItem(ctx context.Context, billID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE id = ? AND bill_id = ?", itemID, billID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.notifyItems(billID)
	return nil
}

// ListParticipants returns the bill's participants with their assignment
// maps, in creation order.
func (s *SQLiteStore) ListParticipants(ctx context.Context, billID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, account_id, paid FROM participants WHERE bill_id = ? ORDER BY created_at, id",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	index := map[string]int{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(participants)
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	assignRows, err := s.db.QueryContext(ctx,
		`SELECT a.participant_id, a.item_id, a.quantity
		 FROM assignments a
		 JOIN participants p ON p.id = a.participant_id
		 WHERE p.bill_id = ?`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var participantID, itemID string
		var quantity int
		if err := assignRows.Scan(&participantID, &itemID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if i, ok := index[participantID]; ok {
			participants[i].Assignments[itemID] = quantity
		}
	}
	if err := assignRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	for i := range participants {
		assignment.Prune(participants[i].Assignments)
	}
	return participants, nil
}

// GetParticipant retrieves one participant with their assignment map.
func (s *SQLiteStore) GetParticipant(ctx context.Context, billID, participantID string) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, account_id, paid FROM participants WHERE id = ? AND bill_id = ?",
		participantID, billID,
	)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, quantity FROM assignments WHERE participant_id = ?", participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var quantity int
		if err := rows.Scan(&itemID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		p.Assignments[itemID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	assignment.Prune(p.Assignments)
	return &p, nil
}

// CreateParticipant persists a new participant and appends its id to the
// bill's member set.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, billID string, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Assignments == nil {
		p.Assignments = map[string]int{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO participants (id, bill_id, name, email, account_id, paid, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, billID, p.Name, p.Email, p.AccountID, boolToInt(p.Paid), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO bill_members (bill_id, member_id) VALUES (?, ?)",
		billID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifyParticipants(billID)
	s.notifyBill(billID)
	return nil
}

// DeleteParticipant removes a participant, their assignments and their
// member-set entry.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, billID, participantID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM participants WHERE id = ? AND bill_id = ?", participantID, billID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM bill_members WHERE bill_id = ? AND member_id = ?", billID, participantID); err != nil {
		return fmt.Errorf("failed to delete bill member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifyParticipants(billID)
	s.notifyBill(billID)
	return nil
}

// UpdateParticipantAssignments replaces the participant's assignment map
// wholesale, dropping non-positive entries.
func (s *SQLiteStore) UpdateParticipantAssignments(ctx context.Context, billID, participantID string, assignments map[string]int) error {
	if _, err := s.GetParticipant(ctx, billID, participantID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM assignments WHERE participant_id = ?", participantID); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	for itemID, quantity := range assignments {
		if quantity <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO assignments (participant_id, item_id, quantity) VALUES (?, ?, ?)",
			participantID, itemID, quantity,
		); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifyParticipants(billID)
	return nil
}

// UpdateParticipantPaid flips a participant's paid flag.
func (s *SQLiteStore) UpdateParticipantPaid(ctx context.Context, billID, participantID string, paid bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE participants SET paid = ? WHERE id = ? AND bill_id = ?",
		boolToInt(paid), participantID, billID,
	)
	if err != nil {
		return fmt.Errorf("failed to update paid flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.notifyParticipants(billID)
	return nil
}

// CreateUser persists a registered user account.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email) VALUES (?, ?, ?)",
		u.ID, u.Name, u.Email,
	); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindUserByEmail resolves a registered user by email.
func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email FROM users WHERE email = ?", email,
	).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

// WatchBill streams the bill record, starting with its current state.
func (s *SQLiteStore) WatchBill(billID string) (<-chan BillSnapshot, CancelFunc) {
	return s.hub.bills.subscribe(billID, s.billSnapshot(billID))
}

// WatchItems streams the bill's item collection.
func (s *SQLiteStore) WatchItems(billID string) (<-chan []models.Item, CancelFunc) {
	items, err := s.ListItems(context.Background(), billID)
	if err != nil {
		items = []models.Item{}
	}
	return s.hub.items.subscribe(billID, items)
}

// WatchParticipants streams the bill's participant collection.
func (s *SQLiteStore) WatchParticipants(billID string) (<-chan []models.Participant, CancelFunc) {
	participants, err := s.ListParticipants(context.Background(), billID)
	if err != nil {
		participants = []models.Participant{}
	}
	return s.hub.participants.subscribe(billID, participants)
}

func (s *SQLiteStore) billSnapshot(billID string) BillSnapshot {
	bill, err := s.GetBill(context.Background(), billID)
	if err != nil {
		return BillSnapshot{}
	}
	return BillSnapshot{Bill: bill}
}

func (s *SQLiteStore) notifyBill(billID string) {
	s.hub.bills.publish(billID, s.billSnapshot(billID))
}

func (s *SQLiteStore) notifyItems(billID string) {
	items, err := s.ListItems(context.Background(), billID)
	if err != nil {
		return
	}
	s.hub.items.publish(billID, items)
}

func (s *SQLiteStore) notifyParticipants(billID string) {
	participants, err := s.ListParticipants(context.Background(), billID)
	if err != nil {
		return
	}
	s.hub.participants.publish(billID, participants)
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row scanner) (models.Participant, error) {
	var p models.Participant
	var paid int
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.AccountID, &paid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan participant: %w", err)
	}
	p.Paid = paid != 0
	p.Assignments = map[string]int{}
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
