package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patungan-app/patungan-backend/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedBill(t *testing.T, store *SQLiteStore) *models.Bill {
	t.Helper()
	bill := &models.Bill{
		Name:       "Dinner at Warung",
		TaxPercent: 10,
		ServiceFee: 20000,
		OwnerID:    "owner-1",
	}
	require.NoError(t, store.CreateBill(context.Background(), bill))
	return bill
}

func TestSQLiteStore_CreateAndGetBill(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)

	require.NotEmpty(t, bill.ID)
	require.NotZero(t, bill.CreatedAt)
	assert.Equal(t, models.StatusUnpaid, bill.Status)

	got, err := store.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner at Warung", got.Name)
	assert.InDelta(t, 10, got.TaxPercent, 0.001)
	assert.InDelta(t, 20000, got.ServiceFee, 0.001)
	assert.Equal(t, "owner-1", got.OwnerID)
}

func TestSQLiteStore_GetBill_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetBill(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_UpdateBillField(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpdateBillField(ctx, bill.ID, "discount", "10%"))
	require.NoError(t, store.UpdateBillField(ctx, bill.ID, "tax_percent", 11.0))

	got, err := store.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "10%", got.Discount)
	assert.InDelta(t, 11, got.TaxPercent, 0.001)
}

func TestSQLiteStore_UpdateBillField_RejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)

	err := store.UpdateBillField(context.Background(), bill.ID, "status", "paid")
	assert.Error(t, err)

	err = store.UpdateBillField(context.Background(), bill.ID, "owner_id; DROP TABLE bills", "x")
	assert.Error(t, err)
}

func TestSQLiteStore_UpdateBillField_RejectsWrongType(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)

	err := store.UpdateBillField(context.Background(), bill.ID, "tax_percent", "eleven")
	assert.Error(t, err)
}

func TestSQLiteStore_ItemLifecycle(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	item := &models.Item{Name: "Nasi Goreng", UnitPrice: 35000, Quantity: 2}
	require.NoError(t, store.CreateItem(ctx, bill.ID, item))
	require.NotEmpty(t, item.ID)

	items, err := store.ListItems(ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nasi Goreng", items[0].Name)

	require.NoError(t, store.DeleteItem(ctx, bill.ID, item.ID))
	items, err = store.ListItems(ctx, bill.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, store.DeleteItem(ctx, bill.ID, item.ID), ErrNotFound)
}

func TestSQLiteStore_ParticipantLifecycle(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	p := &models.Participant{Name: "Ayu"}
	require.NoError(t, store.CreateParticipant(ctx, bill.ID, p))
	require.NotEmpty(t, p.ID)

	// Creating a participant appends it to the bill's member set.
	got, err := store.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Contains(t, got.MemberIDs, p.ID)

	require.NoError(t, store.UpdateParticipantAssignments(ctx, bill.ID, p.ID, map[string]int{"item-1": 2}))
	fetched, err := store.GetParticipant(ctx, bill.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"item-1": 2}, fetched.Assignments)

	require.NoError(t, store.UpdateParticipantPaid(ctx, bill.ID, p.ID, true))
	fetched, err = store.GetParticipant(ctx, bill.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Paid)

	require.NoError(t, store.DeleteParticipant(ctx, bill.ID, p.ID))
	_, err = store.GetParticipant(ctx, bill.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = store.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.MemberIDs, p.ID)
}

func TestSQLiteStore_AssignmentsDropNonPositiveEntries(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	p := &models.Participant{Name: "Budi"}
	require.NoError(t, store.CreateParticipant(ctx, bill.ID, p))

	require.NoError(t, store.UpdateParticipantAssignments(ctx, bill.ID, p.ID,
		map[string]int{"keep": 1, "drop": 0, "also-drop": -3}))

	fetched, err := store.GetParticipant(ctx, bill.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"keep": 1}, fetched.Assignments)
}

func TestSQLiteStore_DeleteItemLeavesAssignmentsDangling(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	item := &models.Item{Name: "Sate", UnitPrice: 5000, Quantity: 10}
	require.NoError(t, store.CreateItem(ctx, bill.ID, item))

	p := &models.Participant{Name: "Citra"}
	require.NoError(t, store.CreateParticipant(ctx, bill.ID, p))
	require.NoError(t, store.UpdateParticipantAssignments(ctx, bill.ID, p.ID, map[string]int{item.ID: 3}))

	require.NoError(t, store.DeleteItem(ctx, bill.ID, item.ID))

	// The claim survives the item; allocation treats it as zero.
	fetched, err := store.GetParticipant(ctx, bill.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{item.ID: 3}, fetched.Assignments)
}

func TestSQLiteStore_DeleteBillCascades(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	item := &models.Item{Name: "Es Teh", UnitPrice: 8000, Quantity: 1}
	require.NoError(t, store.CreateItem(ctx, bill.ID, item))
	p := &models.Participant{Name: "Dewi"}
	require.NoError(t, store.CreateParticipant(ctx, bill.ID, p))

	require.NoError(t, store.DeleteBill(ctx, bill.ID))

	_, err := store.GetBill(ctx, bill.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	items, err := store.ListItems(ctx, bill.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	participants, err := store.ListParticipants(ctx, bill.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestSQLiteStore_ListBillsByMember(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	p := &models.Participant{Name: "Eka"}
	require.NoError(t, store.CreateParticipant(ctx, bill.ID, p))

	bills, err := store.ListBillsByMember(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, bill.ID, bills[0].ID)

	bills, err = store.ListBillsByMember(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestSQLiteStore_FindUserByEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := &models.User{Name: "Fajar", Email: "fajar@example.com"}
	require.NoError(t, store.CreateUser(ctx, u))

	found, err := store.FindUserByEmail(ctx, "fajar@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, "Fajar", found.Name)

	_, err = store.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_WatchDeliversInitialAndUpdates(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	itemsCh, cancel := store.WatchItems(bill.ID)
	defer cancel()

	// Initial snapshot arrives without any write.
	initial := <-itemsCh
	assert.Empty(t, initial)

	require.NoError(t, store.CreateItem(ctx, bill.ID, &models.Item{Name: "Kopi", UnitPrice: 18000, Quantity: 1}))
	updated := <-itemsCh
	require.Len(t, updated, 1)
	assert.Equal(t, "Kopi", updated[0].Name)
}

func TestSQLiteStore_WatchBillAbsentOnDelete(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	billCh, cancel := store.WatchBill(bill.ID)
	defer cancel()

	first := <-billCh
	require.NotNil(t, first.Bill)

	require.NoError(t, store.DeleteBill(ctx, bill.ID))
	gone := <-billCh
	assert.Nil(t, gone.Bill)
}

func TestSQLiteStore_WatchCoalescesForSlowConsumers(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)
	ctx := context.Background()

	itemsCh, cancel := store.WatchItems(bill.ID)
	defer cancel()

	// Three writes without a read in between: the consumer must see the
	// newest snapshot, not block the writers.
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, store.CreateItem(ctx, bill.ID, &models.Item{Name: name, UnitPrice: 1000, Quantity: 1}))
	}

	var latest []models.Item
	for snapshot := range itemsCh {
		latest = snapshot
		if len(latest) == 3 {
			break
		}
	}
	assert.Len(t, latest, 3)
}

func TestSQLiteStore_WatchCancelClosesChannel(t *testing.T) {
	store := newTestStore(t)
	bill := seedBill(t, store)

	billCh, cancel := store.WatchBill(bill.ID)
	<-billCh
	cancel()

	_, open := <-billCh
	assert.False(t, open)

	// Cancel is safe to call twice.
	cancel()
}
