package payments

import (
	"context"
	"errors"
	"testing"

	"circlepay-server/src/models"
)

func newTestPipeline(store *fakeStore) *Pipeline {
	ledger := NewLedger(store)
	return NewPipeline(store, NewAuthorizer(1000), ledger, "familypay")
}

func testCircle() models.Circle {
	return models.Circle{
		ID:           "circle-1",
		Name:         "Doe Household",
		DailyLimit:   2000,
		MonthlyLimit: 30000,
	}
}

func submit(t *testing.T, p *Pipeline, req models.PaymentRequest) *models.Transaction {
	t.Helper()
	tx, err := p.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit(%+v) err = %v", req, err)
	}
	return tx
}

func TestSubmitAutoApproved(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	tx := submit(t, p, models.PaymentRequest{
		Amount:       500,
		Description:  "Lunch",
		Method:       models.MethodQR,
		FromUserID:   7,
		FromUserName: "Jane Doe",
		CircleID:     "circle-1",
	})

	if tx.Status != models.StatusCompleted {
		t.Fatalf("Status = %q, want completed", tx.Status)
	}
	if tx.ID == "" || tx.CreatedAt.IsZero() {
		t.Fatalf("transaction missing server-assigned identity: %+v", tx)
	}

	c := store.circleState("circle-1")
	if c.CurrentDailySpent != 500 {
		t.Errorf("CurrentDailySpent = %v, want 500", c.CurrentDailySpent)
	}
	if c.CurrentMonthlySpent != 500 {
		t.Errorf("CurrentMonthlySpent = %v, want 500", c.CurrentMonthlySpent)
	}
}

func TestSubmitQueuedForApproval(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	tx := submit(t, p, models.PaymentRequest{
		Amount:       1500,
		Description:  "Rent share",
		Method:       models.MethodUPI,
		FromUserID:   7,
		FromUserName: "Jane Doe",
		CircleID:     "circle-1",
	})

	if tx.Status != models.StatusPending {
		t.Fatalf("Status = %q, want pending", tx.Status)
	}

	c := store.circleState("circle-1")
	if c.CurrentDailySpent != 0 || c.CurrentMonthlySpent != 0 {
		t.Fatalf("spend counters changed for pending payment: daily=%v monthly=%v",
			c.CurrentDailySpent, c.CurrentMonthlySpent)
	}
}

func TestSubmitInvalidAmount(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store)

	for _, amount := range []float64{0, -1, -500.25} {
		_, err := p.Submit(context.Background(), models.PaymentRequest{Amount: amount})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Submit(amount=%v) err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if len(store.txs) != 0 {
		t.Fatalf("invalid request was persisted: %d transactions", len(store.txs))
	}
}

func TestSubmitDerivesHandle(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	req := models.PaymentRequest{
		Amount:       100,
		FromUserID:   7,
		FromUserName: "Jane Doe",
		CircleID:     "circle-1",
	}
	first := submit(t, p, req)
	second := submit(t, p, req)

	if first.TargetAddress != "janedoe@familypay" {
		t.Fatalf("TargetAddress = %q, want janedoe@familypay", first.TargetAddress)
	}
	if second.TargetAddress != first.TargetAddress {
		t.Fatalf("handle derivation not deterministic: %q vs %q",
			first.TargetAddress, second.TargetAddress)
	}
}

func TestSubmitKeepsSuppliedTarget(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	tx := submit(t, p, models.PaymentRequest{
		Amount:        100,
		FromUserID:    7,
		FromUserName:  "Jane Doe",
		CircleID:      "circle-1",
		TargetAddress: "grocer@upi",
	})
	if tx.TargetAddress != "grocer@upi" {
		t.Fatalf("TargetAddress = %q, want supplied grocer@upi", tx.TargetAddress)
	}
}

func TestSubmitPersistenceFailure(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	store.createErr = errStorageDown
	p := newTestPipeline(store)

	_, err := p.Submit(context.Background(), models.PaymentRequest{
		Amount:       500,
		FromUserID:   7,
		FromUserName: "Jane Doe",
		CircleID:     "circle-1",
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}

	c := store.circleState("circle-1")
	if c.CurrentDailySpent != 0 {
		t.Fatalf("spend applied despite failed write: %v", c.CurrentDailySpent)
	}
}

func TestSubmitLedgerFailureKeepsTransaction(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	store.spendErr = errStorageDown
	p := newTestPipeline(store)

	tx, err := p.Submit(context.Background(), models.PaymentRequest{
		Amount:       500,
		FromUserID:   7,
		FromUserName: "Jane Doe",
		CircleID:     "circle-1",
	})
	if !errors.Is(err, ErrLedgerUpdate) {
		t.Fatalf("err = %v, want ErrLedgerUpdate", err)
	}
	if tx == nil || tx.Status != models.StatusCompleted {
		t.Fatalf("persisted transaction not returned on ledger failure: %+v", tx)
	}
	if len(store.txs) != 1 {
		t.Fatalf("transaction rolled back: %d stored", len(store.txs))
	}
}

func TestApproveAppliesSpendOnce(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	pending := submit(t, p, models.PaymentRequest{
		Amount:       1500,
		FromUserID:   7,
		FromUserName: "Jane Doe",
		CircleID:     "circle-1",
	})

	approved, err := p.Approve(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("Approve err = %v", err)
	}
	if approved.Status != models.StatusCompleted {
		t.Fatalf("Status = %q, want completed", approved.Status)
	}

	c := store.circleState("circle-1")
	if c.CurrentDailySpent != 1500 || c.CurrentMonthlySpent != 1500 {
		t.Fatalf("counters = daily %v / monthly %v, want 1500/1500",
			c.CurrentDailySpent, c.CurrentMonthlySpent)
	}

	// The status transition is the at-most-once gate.
	if _, err := p.Approve(context.Background(), pending.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Approve err = %v, want ErrInvalidTransition", err)
	}
	c = store.circleState("circle-1")
	if c.CurrentDailySpent != 1500 {
		t.Fatalf("spend double-counted: %v", c.CurrentDailySpent)
	}
}

func TestRejectLeavesLedgerAlone(t *testing.T) {
	store := newFakeStore()
	store.addCircle(testCircle())
	p := newTestPipeline(store)

	pending := submit(t, p, models.PaymentRequest{
		Amount:       1500,
		FromUserID:   7,
		FromUserName: "Jane Doe",
		CircleID:     "circle-1",
	})

	rejected, err := p.Reject(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("Reject err = %v", err)
	}
	if rejected.Status != models.StatusFailed {
		t.Fatalf("Status = %q, want failed", rejected.Status)
	}

	c := store.circleState("circle-1")
	if c.CurrentDailySpent != 0 || c.CurrentMonthlySpent != 0 {
		t.Fatalf("rejected payment touched the ledger: daily=%v monthly=%v",
			c.CurrentDailySpent, c.CurrentMonthlySpent)
	}

	if _, err := p.Approve(context.Background(), pending.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Approve after Reject err = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveUnknownTransaction(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store)

	if _, err := p.Approve(context.Background(), "tx-missing"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestDeriveHandle(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Jane Doe", "janedoe@familypay"},
		{"  Jane Doe  ", "janedoe@familypay"},
		{"RAVI KUMAR SHARMA", "ravikumarsharma@familypay"},
		{"solo", "solo@familypay"},
	}
	for _, tt := range tests {
		if got := DeriveHandle(tt.name, "familypay"); got != tt.want {
			t.Errorf("DeriveHandle(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
