package batch

import (
	"khata/internal/core/apperror"
	"khata/internal/core/types"
)

// Reconcile allocates the batch's shipping charges across its lines,
// proportionally to quantity, and fixes each line's final amount.
//
// Each line gets floor(shipping * qty / totalQty) at cent precision; the
// leftover cents go to the line with the largest quantity (first in input
// order on ties), so the allocations always sum to the declared shipping
// exactly. Errors: EmptyBatch, NegativeShipping.
func Reconcile(b *PurchaseBatch) error {
	if len(b.Lines) == 0 {
		return apperror.NewEmptyBatch()
	}
	if b.ShippingCharges.IsNegative() {
		return apperror.NewNegativeShipping(b.ShippingCharges.String())
	}

	var totalQty int64
	largest := 0
	for i, line := range b.Lines {
		totalQty += line.Quantity
		if line.Quantity > b.Lines[largest].Quantity {
			largest = i
		}
	}

	allocated := types.ZeroMoney()
	for i := range b.Lines {
		share, _ := types.DivInt(types.MulInt(b.ShippingCharges, b.Lines[i].Quantity), totalQty)
		b.Lines[i].ShippingAllocated = share
		allocated = allocated.Add(share)
	}

	// Last cents go to the largest-quantity line; no rounding leakage.
	if leftover := b.ShippingCharges.Sub(allocated); !leftover.IsZero() {
		b.Lines[largest].ShippingAllocated = b.Lines[largest].ShippingAllocated.Add(leftover)
	}

	total := types.ZeroMoney()
	for i := range b.Lines {
		b.Lines[i].FinalAmount = b.Lines[i].LineSubtotal.Add(b.Lines[i].ShippingAllocated)
		total = total.Add(b.Lines[i].FinalAmount)
	}
	b.TotalAmount = total
	b.Reconciled = true
	return nil
}

// ProfitReport is the net-profit computation for one reconciled line once a
// selling price is recorded.
type ProfitReport struct {
	SellingPrice types.Money `json:"sellingPrice"`

	// UnitBuyingPrice = perPieceRate + shippingAllocated/quantity, rounded
	// to cent precision. RoundingRemainder is the sub-cent shipping cost the
	// per-unit view cannot carry; NetProfit accounts for it, so recomputing
	// on unchanged inputs always yields the same result.
	UnitBuyingPrice   types.Money `json:"unitBuyingPrice"`
	RoundingRemainder types.Money `json:"roundingRemainder"`

	// NetProfit = sellingPrice*quantity - (lineSubtotal + shippingAllocated).
	NetProfit types.Money `json:"netProfit"`
}

// NetProfit computes the profit for a reconciled line at the given selling
// price. Pure function of its inputs; idempotent by construction.
// Errors: InvalidAmount when the selling price is negative.
func NetProfit(line LineItem, sellingPrice types.Money) (ProfitReport, error) {
	if sellingPrice.IsNegative() {
		return ProfitReport{}, apperror.NewInvalidAmount("selling price must not be negative").
			WithDetail("sellingPrice", sellingPrice.String())
	}

	unitShip, remainder := types.DivInt(line.ShippingAllocated, line.Quantity)
	revenue := types.MulInt(sellingPrice, line.Quantity)
	cost := line.LineSubtotal.Add(line.ShippingAllocated)

	return ProfitReport{
		SellingPrice:      sellingPrice,
		UnitBuyingPrice:   line.PerPieceRate.Add(unitShip),
		RoundingRemainder: remainder,
		NetProfit:         revenue.Sub(cost),
	}, nil
}
