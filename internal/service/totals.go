package service

import (
	"optikart/internal/model"

	"github.com/shopspring/decimal"
)

// computeBreakdown aggregates line views into the price breakdown. Both the
// unit price and the prescription fee are per-unit snapshots, so each scales
// with quantity. All arithmetic is exact decimal; rounding is a display
// concern.
func computeBreakdown(lines []model.CartLineView) model.Breakdown {
	subtotal := decimal.Zero
	fees := decimal.Zero
	currency := ""

	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(line.UnitPrice.Mul(qty))
		fees = fees.Add(line.PrescriptionFee.Mul(qty))
		if currency == "" {
			currency = line.Currency
		}
	}

	return model.Breakdown{
		SubtotalBase:          subtotal,
		PrescriptionFeesTotal: fees,
		GrandTotal:            subtotal.Add(fees),
		Currency:              currency,
	}
}
