package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"circlepay-server/src/models"
)

// collector records delivered snapshots and signals each delivery so tests
// can pace change events deterministically.
type collector struct {
	mu        sync.Mutex
	snapshots [][]models.Transaction
	delivered chan struct{}
}

func newCollector() *collector {
	return &collector{delivered: make(chan struct{}, 64)}
}

func (c *collector) onUpdate(txs []models.Transaction) {
	c.mu.Lock()
	c.snapshots = append(c.snapshots, txs)
	c.mu.Unlock()
	c.delivered <- struct{}{}
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot delivery")
	}
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshots)
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)
	submit(t, p, models.PaymentRequest{
		Amount: 100, FromUserID: 7, FromUserName: "Jane Doe", CircleID: "circle-1",
	})

	c := newCollector()
	unsub, err := NewSyncChannel(store).Subscribe(7, c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe err = %v", err)
	}
	defer unsub()

	c.wait(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.snapshots) != 1 || len(c.snapshots[0]) != 1 {
		t.Fatalf("initial delivery = %d snapshots, first len %d; want 1 snapshot of 1 tx",
			len(c.snapshots), len(c.snapshots[0]))
	}
}

func TestSnapshotsArriveInOrder(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	c := newCollector()
	unsub, err := NewSyncChannel(store).Subscribe(7, c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe err = %v", err)
	}
	defer unsub()
	c.wait(t) // initial empty snapshot

	// Pace submissions so every change produces its own delivery.
	for i := 0; i < 4; i++ {
		submit(t, p, models.PaymentRequest{
			Amount: 100, FromUserID: 7, FromUserName: "Jane Doe", CircleID: "circle-1",
		})
		c.wait(t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, snap := range c.snapshots {
		if len(snap) != i {
			t.Fatalf("snapshot %d has %d transactions, want %d (out-of-order delivery)",
				i, len(snap), i)
		}
	}
}

func TestSnapshotsIgnoreOtherUsers(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	c := newCollector()
	unsub, err := NewSyncChannel(store).Subscribe(7, c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe err = %v", err)
	}
	defer unsub()
	c.wait(t)

	submit(t, p, models.PaymentRequest{
		Amount: 100, FromUserID: 99, FromUserName: "Someone Else", CircleID: "circle-1",
	})
	submit(t, p, models.PaymentRequest{
		Amount: 100, FromUserID: 7, FromUserName: "Jane Doe", CircleID: "circle-1",
	})

	// Only user 7's own change reaches this subscription.
	c.wait(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.snapshots[len(c.snapshots)-1]
	if len(last) != 1 || last[0].FromUserID != 7 {
		t.Fatalf("final snapshot = %+v, want exactly user 7's transaction", last)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	c := newCollector()
	unsub, err := NewSyncChannel(store).Subscribe(7, c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe err = %v", err)
	}
	c.wait(t)

	unsub()
	unsub()
	unsub()

	store.mu.Lock()
	releases := 0
	for _, n := range store.releases {
		releases += n
	}
	store.mu.Unlock()
	if releases != 1 {
		t.Fatalf("underlying subscription released %d times, want exactly 1", releases)
	}

	before := c.count()
	_, err = p.Submit(context.Background(), models.PaymentRequest{
		Amount: 100, FromUserID: 7, FromUserName: "Jane Doe", CircleID: "circle-1",
	})
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if c.count() != before {
		t.Fatalf("callback invoked after unsubscribe: %d -> %d deliveries", before, c.count())
	}
}
