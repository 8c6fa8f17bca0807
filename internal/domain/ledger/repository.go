package ledger

import (
	"context"

	"khata/internal/core/id"
)

// Repository defines the persistence contract for obligations and their
// payment logs. Implementations live in infrastructure/storage.
type Repository interface {
	// GetObligation retrieves an obligation by id. NotFound when absent.
	GetObligation(ctx context.Context, obligationID id.ID) (*Obligation, error)

	// SaveObligation inserts or updates an obligation. Updates are atomic
	// per record and enforce the optimistic version check: a stale version
	// returns ConcurrentModification.
	SaveObligation(ctx context.Context, o *Obligation) error

	// AppendPaymentEvent appends an event to an obligation's log.
	AppendPaymentEvent(ctx context.Context, event *PaymentEvent) error

	// RemovePaymentEvent deletes a specific event and returns it.
	// NotFound when the event does not belong to the given obligation.
	RemovePaymentEvent(ctx context.Context, obligationID, eventID id.ID) (*PaymentEvent, error)

	// ListPaymentEvents returns the obligation's events ordered by date,
	// then by insertion order for same-date ties.
	ListPaymentEvents(ctx context.Context, obligationID id.ID) ([]PaymentEvent, error)

	// ListObligationsByCounterparty returns obligations referencing the
	// given counterparty, newest first. Used for statement views.
	ListObligationsByCounterparty(ctx context.Context, counterpartyID id.ID) ([]Obligation, error)
}

// CorrectionAuditor records audit-correction trails for payment reversals.
// Optional collaborator; a nil auditor disables the trail.
type CorrectionAuditor interface {
	PaymentReversed(ctx context.Context, obligationID id.ID, removed PaymentEvent) error
}
