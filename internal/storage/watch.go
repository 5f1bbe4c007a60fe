package storage

import (
	"sync"

	"github.com/patungan-app/patungan-backend/internal/models"
)

// feed is a per-bill fan-out of snapshot values. Channels are buffered to
// one element and publishes are latest-wins, so a stalled subscriber never
// blocks a writer and always wakes to the newest snapshot.
type feed[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan T
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{subs: make(map[string]map[int]chan T)}
}

// subscribe registers a channel for the given bill, seeded with initial.
func (f *feed[T]) subscribe(billID string, initial T) (<-chan T, CancelFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan T, 1)
	ch <- initial

	id := f.nextID
	f.nextID++
	if f.subs[billID] == nil {
		f.subs[billID] = make(map[int]chan T)
	}
	f.subs[billID][id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[billID][id]; ok {
			delete(f.subs[billID], id)
			if len(f.subs[billID]) == 0 {
				delete(f.subs, billID)
			}
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers v to every subscriber of the bill, replacing any
// undelivered older snapshot.
func (f *feed[T]) publish(billID string, v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs[billID] {
		select {
		case ch <- v:
		default:
			// Drop the stale snapshot, then retry once. The second send
			// can only fail if a concurrent publish already refilled the
			// buffer with something at least as new.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// changeHub carries the three per-bill snapshot streams. Both the SQLite
// store and the in-memory mock embed one so view and service code behaves
// identically against either.
type changeHub struct {
	bills        *feed[BillSnapshot]
	items        *feed[[]models.Item]
	participants *feed[[]models.Participant]
}

func newChangeHub() *changeHub {
	return &changeHub{
		bills:        newFeed[BillSnapshot](),
		items:        newFeed[[]models.Item](),
		participants: newFeed[[]models.Participant](),
	}
}
