// Package ledger provides obligations and the payment ledger.
// An obligation is the generalized "thing that must be paid": a sale bill,
// a wholesaler purchase, or a recurring operating bill. Payments are applied
// against it through an append-only event log; the balance fields on the
// obligation are a cache over that log, never an independent source of truth.
package ledger

import (
	"context"
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/entity"
	"khata/internal/core/id"
	"khata/internal/core/types"
)

// Kind is the obligation variant tag.
type Kind string

const (
	KindSaleBill           Kind = "sale_bill"
	KindWholesalerPurchase Kind = "wholesaler_purchase"
	KindOperatingBill      Kind = "operating_bill"
	KindGymBill            Kind = "gym_bill"
)

// Status is derived from pendingAmount vs totalAmount.
// Transitions are monotonic forward under payments (Unpaid -> PartiallyPaid
// -> Paid) and may step backward only under reversal.
type Status string

const (
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
)

// PaymentMode is how an installment was settled.
type PaymentMode string

const (
	ModeCash     PaymentMode = "cash"
	ModeCard     PaymentMode = "card"
	ModeTransfer PaymentMode = "transfer"
	ModeOther    PaymentMode = "other"
)

// CounterpartyKind tags the weak counterparty reference.
type CounterpartyKind string

const (
	CounterpartyCustomer   CounterpartyKind = "customer"
	CounterpartyWholesaler CounterpartyKind = "wholesaler"
)

// CounterpartyRef is a weak reference (id + kind) to the customer or
// wholesaler an obligation concerns. Never an ownership relation.
type CounterpartyRef struct {
	ID   id.ID            `db:"counterparty_id" json:"id"`
	Kind CounterpartyKind `db:"counterparty_kind" json:"kind"`
}

// Obligation is a payable record with a total amount and a pending balance.
type Obligation struct {
	entity.BaseDocument

	Kind Kind `db:"kind" json:"kind"`

	// Counterparty reference; nil for operating bills with no counterparty
	CounterpartyID   *id.ID           `db:"counterparty_id" json:"counterpartyId,omitempty"`
	CounterpartyKind CounterpartyKind `db:"counterparty_kind" json:"counterpartyKind,omitempty"`

	// TotalAmount is the obligation's full charge. Non-negative, immutable.
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// CreatedDate is the calendar date the obligation was created. Immutable.
	CreatedDate time.Time `db:"created_date" json:"createdDate"`

	// Balance cache, rewritten from the payment log in the same transaction
	// as every log mutation. Invariant: PendingAmount >= 0 at all times.
	PaidAmount    types.Money `db:"paid_amount" json:"paidAmount"`
	PendingAmount types.Money `db:"pending_amount" json:"pendingAmount"`
	Status        Status      `db:"status" json:"status"`
}

// Balance is the read-only view returned by CurrentBalance.
type Balance struct {
	PaidAmount    types.Money `json:"paidAmount"`
	PendingAmount types.Money `json:"pendingAmount"`
	Status        Status      `json:"status"`
}

// NewObligation creates an obligation with pendingAmount = totalAmount.
// Returns InvalidAmount when totalAmount is negative.
func NewObligation(kind Kind, counterparty *CounterpartyRef, total types.Money, createdDate time.Time) (*Obligation, error) {
	if total.IsNegative() {
		return nil, apperror.NewInvalidAmount("total amount must not be negative").
			WithDetail("totalAmount", total.String())
	}
	if !isValidKind(kind) {
		return nil, apperror.NewValidation("invalid obligation kind").
			WithDetail("field", "kind").
			WithDetail("value", string(kind))
	}

	o := &Obligation{
		BaseDocument: entity.NewBaseDocument(),
		Kind:         kind,
		TotalAmount:  total,
		CreatedDate:  DateOnly(createdDate),
	}
	if counterparty != nil {
		cpID := counterparty.ID
		o.CounterpartyID = &cpID
		o.CounterpartyKind = counterparty.Kind
	}
	o.Recalculate(types.ZeroMoney())
	return o, nil
}

// Recalculate rewrites the balance cache from the given ledger sum.
// The caller is responsible for paid being the sum of the event log.
func (o *Obligation) Recalculate(paid types.Money) {
	o.PaidAmount = paid
	o.PendingAmount = o.TotalAmount.Sub(paid)
	switch {
	case o.PendingAmount.IsZero():
		o.Status = StatusPaid
	case paid.IsZero():
		o.Status = StatusUnpaid
	default:
		o.Status = StatusPartiallyPaid
	}
}

// CurrentBalance returns the cached balance. Pure read, no side effects.
func (o *Obligation) CurrentBalance() Balance {
	return Balance{
		PaidAmount:    o.PaidAmount,
		PendingAmount: o.PendingAmount,
		Status:        o.Status,
	}
}

// Validate implements entity.Validatable.
func (o *Obligation) Validate(ctx context.Context) error {
	if !isValidKind(o.Kind) {
		return apperror.NewValidation("invalid obligation kind").
			WithDetail("field", "kind").
			WithDetail("value", string(o.Kind))
	}
	if o.TotalAmount.IsNegative() {
		return apperror.NewInvalidAmount("total amount must not be negative").
			WithDetail("totalAmount", o.TotalAmount.String())
	}
	if o.PendingAmount.IsNegative() {
		return apperror.NewValidation("pending amount must not be negative").
			WithDetail("pendingAmount", o.PendingAmount.String())
	}
	if o.CreatedDate.IsZero() {
		return apperror.NewValidation("created date is required").
			WithDetail("field", "createdDate")
	}
	return nil
}

// PaymentEvent is a single recorded installment applied against an obligation.
// Events cannot outlive their obligation; deleting an obligation cascades.
type PaymentEvent struct {
	ID           id.ID       `db:"id" json:"id"`
	ObligationID id.ID       `db:"obligation_id" json:"obligationId"`
	Amount       types.Money `db:"amount" json:"amount"`
	Mode         PaymentMode `db:"mode" json:"mode"`
	Date         time.Time   `db:"date" json:"date"`

	// CreatedAt fixes insertion order for same-date ties.
	// Display/audit ordering only; the balance is an order-independent sum.
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewPaymentEvent creates a payment event for an obligation.
func NewPaymentEvent(obligationID id.ID, amount types.Money, mode PaymentMode, date time.Time) PaymentEvent {
	return PaymentEvent{
		ID:           id.New(),
		ObligationID: obligationID,
		Amount:       amount,
		Mode:         mode,
		Date:         DateOnly(date),
		CreatedAt:    time.Now().UTC(),
	}
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isValidKind(k Kind) bool {
	switch k {
	case KindSaleBill, KindWholesalerPurchase, KindOperatingBill, KindGymBill:
		return true
	}
	return false
}

func isValidMode(m PaymentMode) bool {
	switch m {
	case ModeCash, ModeCard, ModeTransfer, ModeOther:
		return true
	}
	return false
}
