// Package billview maintains a live, in-process view of one bill and its
// item and participant collections. It mirrors the store's snapshot streams:
// each notification replaces the corresponding collection wholesale, so the
// view is always the latest full state the store delivered, never an
// incremental patch.
//
// The three collections arrive on independent streams with no
// cross-collection transaction. A caller computing totals reads a
// best-effort consistent snapshot; recomputation is cheap and user
// triggered, so a momentary mismatch between collections corrects itself on
// the next notification.
package billview

import (
	"sync"

	"github.com/patungan-app/patungan-backend/internal/models"
	"github.com/patungan-app/patungan-backend/internal/storage"
)

// View is a live read model of one bill. Create with New, read with
// Snapshot, and always Close when done so the store subscriptions are
// released.
type View struct {
	billID string

	mu           sync.Mutex
	bill         *models.Bill
	items        []models.Item
	participants []models.Participant
	loading      bool

	updates chan struct{}
	done    chan struct{}
	cancels []storage.CancelFunc
	wg      sync.WaitGroup
}

// New subscribes to the bill's three snapshot streams on the given watcher.
// The view reports Loading until the first bill snapshot arrives, whether
// that snapshot carries the bill or reports it absent.
func New(watcher storage.Watcher, billID string) *View {
	v := &View{
		billID:  billID,
		loading: true,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	billCh, cancelBill := watcher.WatchBill(billID)
	itemsCh, cancelItems := watcher.WatchItems(billID)
	participantsCh, cancelParticipants := watcher.WatchParticipants(billID)
	v.cancels = []storage.CancelFunc{cancelBill, cancelItems, cancelParticipants}

	v.wg.Add(3)
	go v.consumeBill(billCh)
	go v.consumeItems(itemsCh)
	go v.consumeParticipants(participantsCh)

	return v
}

// BillID returns the id this view follows.
func (v *View) BillID() string {
	return v.billID
}

// Snapshot returns the current state: the bill (nil when absent), the item
// and participant collections, and whether the view is still waiting for
// the first bill snapshot. The returned slices are the view's own and must
// not be mutated.
func (v *View) Snapshot() (bill *models.Bill, items []models.Item, participants []models.Participant, loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bill, v.items, v.participants, v.loading
}

// Updates signals after each state replacement. Signals are coalesced; a
// consumer that reads Snapshot on every wake never misses the latest state.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

// Close releases the store subscriptions and stops the consumer goroutines.
// Safe to call more than once.
func (v *View) Close() {
	select {
	case <-v.done:
		return
	default:
	}
	close(v.done)
	for _, cancel := range v.cancels {
		cancel()
	}
	v.wg.Wait()
}

func (v *View) consumeBill(ch <-chan storage.BillSnapshot) {
	defer v.wg.Done()
	for {
		select {
		case <-v.done:
			return
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			v.mu.Lock()
			v.bill = snapshot.Bill
			v.loading = false
			v.mu.Unlock()
			v.signal()
		}
	}
}

func (v *View) consumeItems(ch <-chan []models.Item) {
	defer v.wg.Done()
	for {
		select {
		case <-v.done:
			return
		case items, ok := <-ch:
			if !ok {
				return
			}
			v.mu.Lock()
			v.items = items
			v.mu.Unlock()
			v.signal()
		}
	}
}

func (v *View) consumeParticipants(ch <-chan []models.Participant) {
	defer v.wg.Done()
	for {
		select {
		case <-v.done:
			return
		case participants, ok := <-ch:
			if !ok {
				return
			}
			v.mu.Lock()
			v.participants = participants
			v.mu.Unlock()
			v.signal()
		}
	}
}

func (v *View) signal() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}
