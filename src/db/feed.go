package db

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	sqldb "circlepay-server/src/db/sql"
	"circlepay-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const feedRetryDelay = time.Second

// Feed turns Postgres LISTEN/NOTIFY into a per-user push stream of
// transaction snapshots. Every transaction write NOTIFYs the user id; the feed
// re-reads that user's transactions and pushes the full snapshot to each
// subscriber. On a dropped listener connection it reconnects and re-delivers a
// fresh snapshot to every live subscriber, so observers recover from missed
// notifications instead of going stale.
type Feed struct {
	pool      *pgxpool.Pool
	snapshots func(ctx context.Context, userID int64) ([]models.Transaction, error)

	mu         sync.Mutex
	subs       map[int64]map[int]func([]models.Transaction)
	nextSub    int
	dispatchMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

func NewFeed(pool *pgxpool.Pool) *Feed {
	f := &Feed{
		pool: pool,
		subs: make(map[int64]map[int]func([]models.Transaction)),
	}
	f.snapshots = func(ctx context.Context, userID int64) ([]models.Transaction, error) {
		return sqldb.GetTransactionsForUser(ctx, pool, userID)
	}
	return f
}

// Start launches the listener loop. Call Close to stop it.
func (f *Feed) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.run(ctx)
}

func (f *Feed) Close() {
	if f.cancel != nil {
		f.cancel()
		<-f.done
	}
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := f.listen(ctx); err != nil && ctx.Err() == nil {
			log.Printf("ERROR: Transaction feed disconnected: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(feedRetryDelay):
			}
		}
	}
}

func (f *Feed) listen(ctx context.Context) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+sqldb.TransactionChannel); err != nil {
		return err
	}

	// Anything NOTIFYed while we were down is gone; push fresh state to every
	// subscriber before waiting for new notifications.
	f.resyncAll(ctx)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		userID, err := strconv.ParseInt(notification.Payload, 10, 64)
		if err != nil {
			log.Printf("ERROR: Bad feed payload %q: %v", notification.Payload, err)
			continue
		}
		f.dispatch(ctx, userID)
	}
}

// Subscribe registers fn for a user's transaction snapshots and immediately
// delivers the current state. The returned function removes the registration.
func (f *Feed) Subscribe(userID int64, fn func([]models.Transaction)) (func(), error) {
	f.mu.Lock()
	f.nextSub++
	id := f.nextSub
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[int]func([]models.Transaction))
	}
	f.subs[userID][id] = fn
	f.mu.Unlock()

	f.dispatch(context.Background(), userID)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[userID], id)
		if len(f.subs[userID]) == 0 {
			delete(f.subs, userID)
		}
	}, nil
}

// dispatch re-reads one user's transactions and pushes the snapshot to that
// user's subscribers. dispatchMu keeps deliveries in read order, so a
// subscriber never observes an older snapshot after a newer one.
func (f *Feed) dispatch(ctx context.Context, userID int64) {
	f.dispatchMu.Lock()
	defer f.dispatchMu.Unlock()

	f.mu.Lock()
	fns := make([]func([]models.Transaction), 0, len(f.subs[userID]))
	for _, fn := range f.subs[userID] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	txs, err := f.snapshots(ctx, userID)
	if err != nil {
		log.Printf("ERROR: Failed to read transactions for user %d during feed dispatch: %v", userID, err)
		return
	}
	for _, fn := range fns {
		fn(txs)
	}
}

func (f *Feed) resyncAll(ctx context.Context) {
	f.mu.Lock()
	userIDs := make([]int64, 0, len(f.subs))
	for userID := range f.subs {
		userIDs = append(userIDs, userID)
	}
	f.mu.Unlock()

	for _, userID := range userIDs {
		f.dispatch(ctx, userID)
	}
}
