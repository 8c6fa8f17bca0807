package dto

import (
	"time"

	"khata/internal/domain/ledger"
)

// --- Request DTOs ---

// CreateObligationRequest is the request body for creating an obligation.
type CreateObligationRequest struct {
	Kind             string  `json:"kind" binding:"required"`
	CounterpartyID   *string `json:"counterpartyId"`
	CounterpartyKind string  `json:"counterpartyKind"`
	TotalAmount      string  `json:"totalAmount" binding:"required"`
	CreatedDate      string  `json:"createdDate" binding:"required"`
}

// Counterparty builds the optional counterparty reference.
func (r *CreateObligationRequest) Counterparty() (*ledger.CounterpartyRef, error) {
	if r.CounterpartyID == nil {
		return nil, nil
	}
	cpID, err := ParseID("counterpartyId", *r.CounterpartyID)
	if err != nil {
		return nil, err
	}
	return &ledger.CounterpartyRef{
		ID:   cpID,
		Kind: ledger.CounterpartyKind(r.CounterpartyKind),
	}, nil
}

// RecordPaymentRequest is the request body for recording a payment.
type RecordPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Mode   string `json:"mode" binding:"required"`
	Date   string `json:"date" binding:"required"`
}

// --- Response DTOs ---

// ObligationResponse is the response body for an obligation.
type ObligationResponse struct {
	ID               string    `json:"id"`
	Version          int       `json:"version"`
	Kind             string    `json:"kind"`
	CounterpartyID   *string   `json:"counterpartyId,omitempty"`
	CounterpartyKind string    `json:"counterpartyKind,omitempty"`
	TotalAmount      string    `json:"totalAmount"`
	CreatedDate      string    `json:"createdDate"`
	PaidAmount       string    `json:"paidAmount"`
	PendingAmount    string    `json:"pendingAmount"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// FromObligation creates response DTO from domain entity.
func FromObligation(o *ledger.Obligation) *ObligationResponse {
	resp := &ObligationResponse{
		ID:               o.ID.String(),
		Version:          o.Version,
		Kind:             string(o.Kind),
		CounterpartyKind: string(o.CounterpartyKind),
		TotalAmount:      o.TotalAmount.String(),
		CreatedDate:      o.CreatedDate.Format(time.DateOnly),
		PaidAmount:       o.PaidAmount.String(),
		PendingAmount:    o.PendingAmount.String(),
		Status:           string(o.Status),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.CounterpartyID != nil {
		s := o.CounterpartyID.String()
		resp.CounterpartyID = &s
	}
	return resp
}

// FromObligations maps a slice of obligations.
func FromObligations(items []ledger.Obligation) []*ObligationResponse {
	out := make([]*ObligationResponse, 0, len(items))
	for i := range items {
		out = append(out, FromObligation(&items[i]))
	}
	return out
}

// BalanceResponse is the (paid, pending, status) view of an obligation.
type BalanceResponse struct {
	PaidAmount    string `json:"paidAmount"`
	PendingAmount string `json:"pendingAmount"`
	Status        string `json:"status"`
}

// FromBalance creates response DTO from domain balance.
func FromBalance(b ledger.Balance) BalanceResponse {
	return BalanceResponse{
		PaidAmount:    b.PaidAmount.String(),
		PendingAmount: b.PendingAmount.String(),
		Status:        string(b.Status),
	}
}

// PaymentEventResponse is one entry of the payment log.
type PaymentEventResponse struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Mode      string    `json:"mode"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromPaymentEvents maps the ordered payment log.
func FromPaymentEvents(events []ledger.PaymentEvent) []PaymentEventResponse {
	out := make([]PaymentEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, PaymentEventResponse{
			ID:        e.ID.String(),
			Amount:    e.Amount.String(),
			Mode:      string(e.Mode),
			Date:      e.Date.Format(time.DateOnly),
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
