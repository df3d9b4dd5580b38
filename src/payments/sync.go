package payments

import (
	"sync"

	"circlepay-server/src/models"
)

// SyncChannel delivers ordered transaction snapshots to observers without the
// observer ever polling. Each subscription gets its own delivery goroutine, so
// a slow observer never blocks the store's change feed; consecutive snapshots
// may coalesce (the observer always sees the newest state, never a stale one).
type SyncChannel struct {
	store Store
}

func NewSyncChannel(store Store) *SyncChannel {
	return &SyncChannel{store: store}
}

// Subscribe registers onUpdate for the user's transaction list and returns an
// idempotent unsubscribe. Snapshots are delivered in the order received;
// duplicates are possible after a feed reconnect, missed final state is not.
func (c *SyncChannel) Subscribe(userID int64, onUpdate func([]models.Transaction)) (func(), error) {
	sub := &subscription{
		updates: make(chan []models.Transaction, 1),
		stop:    make(chan struct{}),
	}

	release, err := c.store.SubscribeTransactions(userID, sub.push)
	if err != nil {
		return nil, err
	}
	sub.release = release

	go sub.deliver(onUpdate)

	return sub.unsubscribe, nil
}

type subscription struct {
	updates chan []models.Transaction
	stop    chan struct{}
	once    sync.Once
	release func()
}

// push queues the latest snapshot, replacing an undelivered older one.
// Snapshots are full state, so dropping a superseded one loses nothing.
func (s *subscription) push(txs []models.Transaction) {
	for {
		select {
		case <-s.stop:
			return
		case s.updates <- txs:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *subscription) deliver(onUpdate func([]models.Transaction)) {
	for {
		select {
		case <-s.stop:
			return
		case txs := <-s.updates:
			select {
			case <-s.stop:
				return
			default:
			}
			onUpdate(txs)
		}
	}
}

// unsubscribe releases the underlying feed registration exactly once; further
// calls are no-ops.
func (s *subscription) unsubscribe() {
	s.once.Do(func() {
		close(s.stop)
		if s.release != nil {
			s.release()
		}
	})
}
