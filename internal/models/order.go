package models

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType is the kind of document the form produces.
// The value is the French label printed as the PDF title.
type DocumentType string

const (
	DocumentPurchaseOrder DocumentType = "Bon de commande"
	DocumentDeliveryNote  DocumentType = "Bon de livraison"
)

// DocumentTypes lists the selectable document types, default first.
var DocumentTypes = []DocumentType{DocumentPurchaseOrder, DocumentDeliveryNote}

// ParseDocumentType accepts either the label or a short code (purchase_order, delivery_note).
func ParseDocumentType(s string) (DocumentType, bool) {
	switch s {
	case string(DocumentPurchaseOrder), "purchase_order":
		return DocumentPurchaseOrder, true
	case string(DocumentDeliveryNote), "delivery_note":
		return DocumentDeliveryNote, true
	}
	return "", false
}

var (
	// ErrItemIndex is returned when an operation targets a row that does not exist.
	ErrItemIndex = errors.New("item index out of range")
	// ErrUnknownField is returned when an update names a field a line item does not have.
	ErrUnknownField = errors.New("unknown item field")
)

// OrderForm is the editable state of one purchase order or delivery note.
// Values are treated as immutable: every operation returns a new form.
type OrderForm struct {
	DocumentType DocumentType `json:"document_type"`
	CompanyName  string       `json:"company_name"`
	Email        string       `json:"email"`
	// EnteredAt is set on the first edit of the company name or the e-mail.
	EnteredAt *time.Time `json:"entered_at,omitempty"`
	Items     []LineItem `json:"items"`
}

// NewOrderForm returns an empty purchase order.
func NewOrderForm() OrderForm {
	return OrderForm{DocumentType: DocumentPurchaseOrder, Items: []LineItem{}}
}

func (f OrderForm) clone() OrderForm {
	out := f
	out.Items = slices.Clone(f.Items)
	if out.Items == nil {
		out.Items = []LineItem{}
	}
	if f.EnteredAt != nil {
		t := *f.EnteredAt
		out.EnteredAt = &t
	}
	return out
}

// CheckIndex reports ErrItemIndex when index does not name an existing row.
func (f OrderForm) CheckIndex(index int) error {
	if index < 0 || index >= len(f.Items) {
		return fmt.Errorf("%w: %d (items: %d)", ErrItemIndex, index, len(f.Items))
	}
	return nil
}

// AddItem appends a blank line item.
func (f OrderForm) AddItem() OrderForm {
	out := f.clone()
	out.Items = append(out.Items, NewLineItem())
	return out
}

// UpdateItem coerces raw and stores it in the given field of the item at index.
func (f OrderForm) UpdateItem(index int, field Field, raw string) (OrderForm, error) {
	if err := f.CheckIndex(index); err != nil {
		return f, err
	}
	item, err := f.Items[index].With(field, raw)
	if err != nil {
		return f, err
	}
	out := f.clone()
	out.Items[index] = item
	return out, nil
}

// RemoveItem drops the item at index; later items shift down by one.
func (f OrderForm) RemoveItem(index int) (OrderForm, error) {
	if err := f.CheckIndex(index); err != nil {
		return f, err
	}
	out := f.clone()
	out.Items = slices.Delete(out.Items, index, index+1)
	return out, nil
}

// SetDocumentType switches between purchase order and delivery note.
func (f OrderForm) SetDocumentType(t DocumentType) OrderForm {
	out := f.clone()
	out.DocumentType = t
	return out
}

// SetCompanyName records the company name and stamps EnteredAt on first edit.
func (f OrderForm) SetCompanyName(name string, now time.Time) OrderForm {
	out := f.clone()
	out.CompanyName = name
	out.touch(now)
	return out
}

// SetEmail records the e-mail and stamps EnteredAt on first edit.
func (f OrderForm) SetEmail(email string, now time.Time) OrderForm {
	out := f.clone()
	out.Email = email
	out.touch(now)
	return out
}

func (f *OrderForm) touch(now time.Time) {
	if f.EnteredAt == nil {
		f.EnteredAt = &now
	}
}

// TotalHT is the sum of the rounded row totals.
func (f OrderForm) TotalHT() decimal.Decimal {
	return ComputeTotals(f.Items).HT
}

// TotalTTC applies the fixed tax rate to TotalHT.
func (f OrderForm) TotalTTC() decimal.Decimal {
	return ComputeTotals(f.Items).TTC
}

// Normalize applies the coercions of the edit operations to a form decoded from
// outside: unknown document types fall back to the default, negative quantities
// and prices become zero and every number is bounded by ClampAmount.
func (f OrderForm) Normalize() OrderForm {
	out := f.clone()
	if dt, ok := ParseDocumentType(string(out.DocumentType)); ok {
		out.DocumentType = dt
	} else {
		out.DocumentType = DocumentPurchaseOrder
	}
	for i, it := range out.Items {
		it.Quantity = ClampQuantity(decimal.NewFromInt(it.Quantity))
		it.UnitPriceHT = ClampAmount(it.UnitPriceHT)
		if it.UnitPriceHT.IsNegative() {
			it.UnitPriceHT = decimal.Zero
		}
		it.Discount = ClampAmount(it.Discount)
		out.Items[i] = it
	}
	return out
}
