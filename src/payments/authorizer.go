package payments

import "circlepay-server/src/models"

// DefaultAutoApproveLimit is the fallback approval threshold in currency units
// when no AUTO_APPROVE_LIMIT is configured.
const DefaultAutoApproveLimit = 1000

type Decision struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Authorizer decides whether a payment completes immediately or waits for an
// admin. The decision is a pure function of the amount.
type Authorizer struct {
	limit float64
}

func NewAuthorizer(limit float64) *Authorizer {
	if limit <= 0 {
		limit = DefaultAutoApproveLimit
	}
	return &Authorizer{limit: limit}
}

// Decide routes amounts below the limit to completed and everything at or
// above it to pending. The boundary itself requires approval.
func (a *Authorizer) Decide(amount float64) Decision {
	if amount < a.limit {
		return Decision{Status: models.StatusCompleted, Reason: "auto-approved under limit"}
	}
	return Decision{Status: models.StatusPending, Reason: "requires admin approval"}
}

// Limit reports the configured threshold, for display in the client.
func (a *Authorizer) Limit() float64 {
	return a.limit
}
