package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is the fixed multiplier turning HT amounts into TTC (20% VAT).
var TaxRate = decimal.RequireFromString("1.20")

var hundred = decimal.NewFromInt(100)

// Field names one editable column of a line item.
type Field string

const (
	FieldReference Field = "reference"
	FieldQuantity  Field = "quantity"
	FieldUnitPrice Field = "unit_price_ht"
	FieldDiscount  Field = "discount"
)

// ItemFields lists the editable columns in display order.
var ItemFields = []Field{FieldReference, FieldQuantity, FieldUnitPrice, FieldDiscount}

// ParseField resolves a field name. The French names of the order sheet are accepted too.
func ParseField(s string) (Field, error) {
	switch strings.TrimSpace(s) {
	case "reference", "référence":
		return FieldReference, nil
	case "quantity", "quantite", "quantité":
		return FieldQuantity, nil
	case "unit_price_ht", "unit_price", "prixHT":
		return FieldUnitPrice, nil
	case "discount", "remise":
		return FieldDiscount, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// LineItem is one row of the order.
type LineItem struct {
	Reference   string          `json:"reference"`
	Quantity    int64           `json:"quantity"`
	UnitPriceHT decimal.Decimal `json:"unit_price_ht"`
	// Discount is a percentage; values outside [0,100] are kept as entered.
	Discount decimal.Decimal `json:"discount"`
}

// NewLineItem returns the row appended by "add item": no reference, no price, quantity 1.
func NewLineItem() LineItem {
	return LineItem{Quantity: 1, UnitPriceHT: decimal.Zero, Discount: decimal.Zero}
}

// With returns a copy of the item with raw coerced into field.
// Numeric fields never fail: unparseable input becomes zero.
func (i LineItem) With(field Field, raw string) (LineItem, error) {
	switch field {
	case FieldReference:
		i.Reference = raw
	case FieldQuantity:
		i.Quantity = ParseQuantity(raw)
	case FieldUnitPrice:
		price := ParseAmount(raw)
		if price.IsNegative() {
			price = decimal.Zero
		}
		i.UnitPriceHT = price
	case FieldDiscount:
		i.Discount = ParseAmount(raw)
	default:
		return i, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return i, nil
}

// Total is quantity × unit price × (1 − discount/100), rounded to cents.
func (i LineItem) Total() decimal.Decimal {
	return decimal.NewFromInt(i.Quantity).
		Mul(i.UnitPriceHT).
		Mul(hundred.Sub(i.Discount)).
		Shift(-2).
		Round(2)
}

// Totals holds the aggregate amounts of a form.
type Totals struct {
	HT  decimal.Decimal
	TTC decimal.Decimal
}

// ComputeTotals sums the already rounded row totals, then applies TaxRate.
func ComputeTotals(items []LineItem) Totals {
	ht := decimal.Zero
	for _, it := range items {
		ht = ht.Add(it.Total())
	}
	return Totals{HT: ht, TTC: ht.Mul(TaxRate).Round(2)}
}

// Bounds applied to every number entering a form. Larger magnitudes are clamped and
// values with more than maxScale decimals become zero; arithmetic on a decimal
// allocates 10^exponent, so the exponent is checked before anything else.
const (
	maxScale    = 20
	maxExponent = 20
)

var (
	// MaxAmount is the largest price, discount or quantity a form accepts.
	MaxAmount   = decimal.New(1, 15)
	maxQuantity = MaxAmount.IntPart()
)

// ClampAmount bounds d to [-MaxAmount, MaxAmount] and drops values finer than
// maxScale decimals, without ever expanding a large exponent.
func ClampAmount(d decimal.Decimal) decimal.Decimal {
	sign := d.Sign()
	if sign == 0 {
		return decimal.Zero
	}
	exp := d.Exponent()
	if exp < -maxScale {
		return decimal.Zero
	}
	if exp > maxExponent || d.Abs().GreaterThan(MaxAmount) {
		if sign < 0 {
			return MaxAmount.Neg()
		}
		return MaxAmount
	}
	return d
}

// ParseAmount reads a user-typed number. Blank or invalid input yields zero;
// magnitudes are bounded by ClampAmount.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return ClampAmount(d)
}

// ParseQuantity reads a quantity, truncating fractions and clamping to [0, MaxAmount].
func ParseQuantity(raw string) int64 {
	return ClampQuantity(ParseAmount(raw))
}

// ClampQuantity converts d to a quantity in [0, MaxAmount].
func ClampQuantity(d decimal.Decimal) int64 {
	d = ClampAmount(d)
	if d.IsNegative() {
		return 0
	}
	if d.GreaterThanOrEqual(MaxAmount) {
		return maxQuantity
	}
	return d.IntPart()
}

// FormatAmount renders an amount with two decimals ("18.00").
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
