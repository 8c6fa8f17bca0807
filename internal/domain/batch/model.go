// Package batch provides the purchase batch reconciler.
// A wholesaler purchase spans one or more product line items sharing one
// shipping charge; reconciliation amortizes that charge across the lines so
// the allocations sum to the declared shipping exactly, then fixes each
// line's final amount.
package batch

import (
	"context"
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/entity"
	"khata/internal/core/id"
	"khata/internal/core/types"
)

// LineItem is one product position in a purchase batch.
type LineItem struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductName  string      `db:"product_name" json:"productName"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	PerPieceRate types.Money `db:"per_piece_rate" json:"perPieceRate"`
	Expiry       *time.Time  `db:"expiry" json:"expiry,omitempty"`

	// LineSubtotal = PerPieceRate * Quantity, fixed at construction.
	LineSubtotal types.Money `db:"line_subtotal" json:"lineSubtotal"`

	// Set by reconciliation. FinalAmount = LineSubtotal + ShippingAllocated.
	ShippingAllocated types.Money `db:"shipping_allocated" json:"shippingAllocated"`
	FinalAmount       types.Money `db:"final_amount" json:"finalAmount"`
}

// PurchaseBatch is a wholesaler purchase document with shared shipping.
type PurchaseBatch struct {
	entity.BaseDocument

	WholesalerID id.ID     `db:"wholesaler_id" json:"wholesalerId"`
	PurchaseDate time.Time `db:"purchase_date" json:"purchaseDate"`

	ShippingCharges types.Money `db:"shipping_charges" json:"shippingCharges"`

	// TotalAmount = sum of line FinalAmounts, set by reconciliation.
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Reconciled bool `db:"reconciled" json:"reconciled"`

	Lines []LineItem `db:"-" json:"lines"`
}

// NewPurchaseBatch creates an empty batch for a wholesaler.
func NewPurchaseBatch(wholesalerID id.ID, purchaseDate time.Time, shipping types.Money) *PurchaseBatch {
	return &PurchaseBatch{
		BaseDocument:    entity.NewBaseDocument(),
		WholesalerID:    wholesalerID,
		PurchaseDate:    purchaseDate,
		ShippingCharges: shipping,
		Lines:           make([]LineItem, 0),
	}
}

// AddLine appends a line item, enforcing the subtotal invariant once,
// at construction, instead of at every call site.
func (b *PurchaseBatch) AddLine(productName string, quantity int64, perPieceRate types.Money, expiry *time.Time) error {
	if productName == "" {
		return apperror.NewValidation("product name is required").
			WithDetail("field", "productName")
	}
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", quantity)
	}
	if perPieceRate.IsNegative() {
		return apperror.NewInvalidAmount("per-piece rate must not be negative").
			WithDetail("perPieceRate", perPieceRate.String())
	}

	b.Lines = append(b.Lines, LineItem{
		LineID:       id.New(),
		LineNo:       len(b.Lines) + 1,
		ProductName:  productName,
		Quantity:     quantity,
		PerPieceRate: perPieceRate,
		Expiry:       expiry,
		LineSubtotal: types.MulInt(perPieceRate, quantity),
	})
	b.Reconciled = false
	return nil
}

// Validate implements entity.Validatable.
func (b *PurchaseBatch) Validate(ctx context.Context) error {
	if id.IsNil(b.WholesalerID) {
		return apperror.NewValidation("wholesaler is required").
			WithDetail("field", "wholesalerId")
	}
	if len(b.Lines) == 0 {
		return apperror.NewEmptyBatch()
	}
	if b.ShippingCharges.IsNegative() {
		return apperror.NewNegativeShipping(b.ShippingCharges.String())
	}
	for i, line := range b.Lines {
		if line.ProductName == "" {
			return apperror.NewValidation("product name is required").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
