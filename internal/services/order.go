package services

import (
	"time"

	"github.com/diewo77/bon-de-commande/internal/models"
	"github.com/shopspring/decimal"
)

// OrderService applies form edits to the session's form held in the store.
type OrderService struct {
	store *FormStore
	now   func() time.Time
}

// NewOrderService edits the forms held in store.
func NewOrderService(store *FormStore) *OrderService {
	return &OrderService{store: store, now: time.Now}
}

// HeaderUpdate carries the header fields submitted by the client; nil means untouched.
type HeaderUpdate struct {
	DocumentType *string
	CompanyName  *string
	Email        *string
}

// Form returns the current form of a session.
func (s *OrderService) Form(sessionID string) models.OrderForm {
	return s.store.Get(sessionID)
}

// AddItem appends a blank row.
func (s *OrderService) AddItem(sessionID string) models.OrderForm {
	form, _ := s.store.Update(sessionID, func(f models.OrderForm) (models.OrderForm, error) {
		return f.AddItem(), nil
	})
	return form
}

// UpdateItem sets one field of one row. field may use the French column names.
func (s *OrderService) UpdateItem(sessionID string, index int, field, raw string) (models.OrderForm, error) {
	fld, err := models.ParseField(field)
	if err != nil {
		return s.Form(sessionID), err
	}
	return s.store.Update(sessionID, func(f models.OrderForm) (models.OrderForm, error) {
		return f.UpdateItem(index, fld, raw)
	})
}

// UpdateItemFields sets several fields of one row at once, in display order.
// Either every field is applied or none is.
func (s *OrderService) UpdateItemFields(sessionID string, index int, values map[models.Field]string) (models.OrderForm, error) {
	return s.store.Update(sessionID, func(f models.OrderForm) (models.OrderForm, error) {
		next := f
		for _, fld := range models.ItemFields {
			raw, ok := values[fld]
			if !ok {
				continue
			}
			var err error
			if next, err = next.UpdateItem(index, fld, raw); err != nil {
				return f, err
			}
		}
		if len(values) == 0 {
			return f, f.CheckIndex(index)
		}
		return next, nil
	})
}

// RemoveItem drops a row.
func (s *OrderService) RemoveItem(sessionID string, index int) (models.OrderForm, error) {
	return s.store.Update(sessionID, func(f models.OrderForm) (models.OrderForm, error) {
		return f.RemoveItem(index)
	})
}

// UpdateHeader applies the submitted header fields. The entry date is only stamped
// when the company name or e-mail actually changes; an unknown document type is ignored.
func (s *OrderService) UpdateHeader(sessionID string, upd HeaderUpdate) models.OrderForm {
	now := s.now()
	form, _ := s.store.Update(sessionID, func(f models.OrderForm) (models.OrderForm, error) {
		if upd.DocumentType != nil {
			if dt, ok := models.ParseDocumentType(*upd.DocumentType); ok {
				f = f.SetDocumentType(dt)
			}
		}
		if upd.CompanyName != nil && *upd.CompanyName != f.CompanyName {
			f = f.SetCompanyName(*upd.CompanyName, now)
		}
		if upd.Email != nil && *upd.Email != f.Email {
			f = f.SetEmail(*upd.Email, now)
		}
		return f, nil
	})
	return form
}

// Reset discards the session's form.
func (s *OrderService) Reset(sessionID string) models.OrderForm {
	s.store.Delete(sessionID)
	return models.NewOrderForm()
}

// ComputeTotals returns the HT and TTC totals of a form.
func (s *OrderService) ComputeTotals(form models.OrderForm) (ht, ttc decimal.Decimal) {
	t := models.ComputeTotals(form.Items)
	return t.HT, t.TTC
}
