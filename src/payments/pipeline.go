package payments

import (
	"context"
	"fmt"
	"log"
	"strings"

	"circlepay-server/src/models"
)

// DefaultHandleDomain is the suffix for payment handles derived from a
// member's display name when no target address is supplied.
const DefaultHandleDomain = "familypay"

// Pipeline runs a payment request from validation through persistence and,
// for auto-approved payments, the ledger update.
type Pipeline struct {
	store        Store
	authorizer   *Authorizer
	ledger       *Ledger
	handleDomain string
}

func NewPipeline(store Store, authorizer *Authorizer, ledger *Ledger, handleDomain string) *Pipeline {
	if handleDomain == "" {
		handleDomain = DefaultHandleDomain
	}
	return &Pipeline{
		store:        store,
		authorizer:   authorizer,
		ledger:       ledger,
		handleDomain: handleDomain,
	}
}

// DeriveHandle builds a deterministic payment handle from a display name:
// lower-cased, spaces removed, "@domain" suffix. "Jane Doe" -> "janedoe@familypay".
// Two members with the same display name derive the same handle; collisions
// are not resolved here.
func DeriveHandle(displayName, domain string) string {
	name := strings.ToLower(strings.TrimSpace(displayName))
	name = strings.ReplaceAll(name, " ", "")
	return name + "@" + domain
}

// Submit validates the request, decides its initial status, persists exactly
// one transaction, and applies the spend iff the transaction completed.
//
// On a ledger failure the persisted transaction is returned together with a
// wrapped ErrLedgerUpdate: the transaction stands, the counters lag, and
// re-applying the spend is the recovery.
func (p *Pipeline) Submit(ctx context.Context, req models.PaymentRequest) (*models.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	target := req.TargetAddress
	if target == "" {
		target = DeriveHandle(req.FromUserName, p.handleDomain)
	}

	decision := p.authorizer.Decide(req.Amount)

	tx := &models.Transaction{
		FromUserID:    req.FromUserID,
		FromUserName:  req.FromUserName,
		CircleID:      req.CircleID,
		Amount:        req.Amount,
		Description:   req.Description,
		Method:        req.Method,
		TargetAddress: target,
		Status:        decision.Status,
	}

	created, err := p.store.CreateTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if created.Status == models.StatusCompleted {
		if err := p.ledger.ApplySpend(ctx, created.CircleID, created.Amount); err != nil {
			log.Printf("ERROR: Spend not applied for transaction %s (circle %s, amount %.2f): %v",
				created.ID, created.CircleID, created.Amount, err)
			return created, err
		}
	}

	return created, nil
}

// Approve transitions a pending transaction to completed and applies its
// amount to the circle's spend counters. The conditional status update is the
// at-most-once gate: a second approval fails with ErrInvalidTransition and
// never reaches the ledger.
func (p *Pipeline) Approve(ctx context.Context, transactionID string) (*models.Transaction, error) {
	tx, err := p.store.UpdateTransactionStatus(ctx, transactionID, models.StatusCompleted)
	if err != nil {
		return nil, err
	}

	if err := p.ledger.ApplySpend(ctx, tx.CircleID, tx.Amount); err != nil {
		log.Printf("ERROR: Spend not applied for approved transaction %s (circle %s, amount %.2f): %v",
			tx.ID, tx.CircleID, tx.Amount, err)
		return tx, err
	}

	return tx, nil
}

// Reject transitions a pending transaction to failed. The ledger is untouched.
func (p *Pipeline) Reject(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return p.store.UpdateTransactionStatus(ctx, transactionID, models.StatusFailed)
}
