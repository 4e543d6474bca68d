// Package money holds the fixed-precision arithmetic for line and transaction
// totals. Intermediates keep full decimal precision; values are rounded to
// 2 decimal places only at the boundary where they are persisted or displayed,
// so aggregation never compounds rounding error.
package money

import "github.com/shopspring/decimal"

// LineSubtotal is unit price times quantity.
func LineSubtotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// LineTax is the subtotal times the tax-rate fraction, full precision.
func LineTax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate)
}

// LineTotal is subtotal plus tax at full precision. Callers round at persist.
func LineTotal(price decimal.Decimal, qty int, rate decimal.Decimal) decimal.Decimal {
	sub := LineSubtotal(price, qty)
	return sub.Add(LineTax(sub, rate))
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Totals aggregates subtotal, tax, and total over a line set described by
// (price, qty, rate) triples, recomputed in full. Subtotal and Tax are rounded
// independently and Total is their sum, so total == subtotal + tax holds
// exactly on the persisted values.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
	TaxRate   decimal.Decimal
}

func Totals(lines []Line) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	tax = decimal.Zero
	for _, l := range lines {
		sub := LineSubtotal(l.UnitPrice, l.Quantity)
		subtotal = subtotal.Add(sub)
		tax = tax.Add(LineTax(sub, l.TaxRate))
	}
	subtotal = Round2(subtotal)
	tax = Round2(tax)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}
