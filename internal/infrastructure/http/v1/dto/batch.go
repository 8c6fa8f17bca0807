package dto

import (
	"time"

	"khata/internal/core/apperror"
	"khata/internal/domain/batch"
	"khata/internal/domain/ledger"
)

// --- Request DTOs ---

// BatchLineRequest is one product line of a purchase batch.
type BatchLineRequest struct {
	ProductName  string  `json:"productName" binding:"required"`
	Quantity     int64   `json:"quantity" binding:"required"`
	PerPieceRate string  `json:"perPieceRate" binding:"required"`
	Expiry       *string `json:"expiry"`
}

// RecordPurchaseRequest is the request body for recording a purchase batch.
type RecordPurchaseRequest struct {
	WholesalerID    string             `json:"wholesalerId" binding:"required"`
	PurchaseDate    string             `json:"purchaseDate" binding:"required"`
	ShippingCharges string             `json:"shippingCharges" binding:"required"`
	Lines           []BatchLineRequest `json:"lines"`
}

// ToEntity converts DTO to an unreconciled purchase batch.
func (r *RecordPurchaseRequest) ToEntity() (*batch.PurchaseBatch, error) {
	wholesalerID, err := ParseID("wholesalerId", r.WholesalerID)
	if err != nil {
		return nil, err
	}
	purchaseDate, err := ParseDate("purchaseDate", r.PurchaseDate)
	if err != nil {
		return nil, err
	}
	shipping, err := ParseMoney("shippingCharges", r.ShippingCharges)
	if err != nil {
		return nil, err
	}

	b := batch.NewPurchaseBatch(wholesalerID, purchaseDate, shipping)
	for i, line := range r.Lines {
		rate, err := ParseMoney("perPieceRate", line.PerPieceRate)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("lineNo", i+1)
			}
			return nil, err
		}
		var expiry *time.Time
		if line.Expiry != nil {
			t, err := ParseDate("expiry", *line.Expiry)
			if err != nil {
				return nil, err
			}
			expiry = &t
		}
		if err := b.AddLine(line.ProductName, line.Quantity, rate, expiry); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// NetProfitRequest is the query for a line's profit computation.
type NetProfitRequest struct {
	SellingPrice string `form:"sellingPrice" binding:"required"`
}

// --- Response DTOs ---

// BatchLineResponse is one reconciled line of a purchase batch.
type BatchLineResponse struct {
	LineID            string  `json:"lineId"`
	LineNo            int     `json:"lineNo"`
	ProductName       string  `json:"productName"`
	Quantity          int64   `json:"quantity"`
	PerPieceRate      string  `json:"perPieceRate"`
	Expiry            *string `json:"expiry,omitempty"`
	LineSubtotal      string  `json:"lineSubtotal"`
	ShippingAllocated string  `json:"shippingAllocated"`
	FinalAmount       string  `json:"finalAmount"`
}

// PurchaseBatchResponse is the response body for a purchase batch.
type PurchaseBatchResponse struct {
	ID              string              `json:"id"`
	Version         int                 `json:"version"`
	WholesalerID    string              `json:"wholesalerId"`
	PurchaseDate    string              `json:"purchaseDate"`
	ShippingCharges string              `json:"shippingCharges"`
	TotalAmount     string              `json:"totalAmount"`
	Reconciled      bool                `json:"reconciled"`
	Lines           []BatchLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// FromPurchaseBatch creates response DTO from domain entity.
func FromPurchaseBatch(b *batch.PurchaseBatch) *PurchaseBatchResponse {
	lines := make([]BatchLineResponse, 0, len(b.Lines))
	for _, line := range b.Lines {
		lr := BatchLineResponse{
			LineID:            line.LineID.String(),
			LineNo:            line.LineNo,
			ProductName:       line.ProductName,
			Quantity:          line.Quantity,
			PerPieceRate:      line.PerPieceRate.String(),
			LineSubtotal:      line.LineSubtotal.String(),
			ShippingAllocated: line.ShippingAllocated.String(),
			FinalAmount:       line.FinalAmount.String(),
		}
		if line.Expiry != nil {
			s := line.Expiry.Format(time.DateOnly)
			lr.Expiry = &s
		}
		lines = append(lines, lr)
	}
	return &PurchaseBatchResponse{
		ID:              b.ID.String(),
		Version:         b.Version,
		WholesalerID:    b.WholesalerID.String(),
		PurchaseDate:    b.PurchaseDate.Format(time.DateOnly),
		ShippingCharges: b.ShippingCharges.String(),
		TotalAmount:     b.TotalAmount.String(),
		Reconciled:      b.Reconciled,
		Lines:           lines,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// FromPurchaseBatches maps a slice of batches.
func FromPurchaseBatches(items []batch.PurchaseBatch) []*PurchaseBatchResponse {
	out := make([]*PurchaseBatchResponse, 0, len(items))
	for i := range items {
		out = append(out, FromPurchaseBatch(&items[i]))
	}
	return out
}

// RecordPurchaseResponse pairs the stored batch with its ledger obligation.
type RecordPurchaseResponse struct {
	Batch      *PurchaseBatchResponse `json:"batch"`
	Obligation *ObligationResponse    `json:"obligation"`
}

// NewRecordPurchaseResponse creates the combined purchase response.
func NewRecordPurchaseResponse(b *batch.PurchaseBatch, o *ledger.Obligation) RecordPurchaseResponse {
	return RecordPurchaseResponse{
		Batch:      FromPurchaseBatch(b),
		Obligation: FromObligation(o),
	}
}

// ProfitReportResponse is the net-profit view of one line.
type ProfitReportResponse struct {
	SellingPrice      string `json:"sellingPrice"`
	UnitBuyingPrice   string `json:"unitBuyingPrice"`
	RoundingRemainder string `json:"roundingRemainder"`
	NetProfit         string `json:"netProfit"`
}

// FromProfitReport creates response DTO from domain report.
func FromProfitReport(r batch.ProfitReport) ProfitReportResponse {
	return ProfitReportResponse{
		SellingPrice:      r.SellingPrice.String(),
		UnitBuyingPrice:   r.UnitBuyingPrice.String(),
		RoundingRemainder: r.RoundingRemainder.String(),
		NetProfit:         r.NetProfit.String(),
	}
}
