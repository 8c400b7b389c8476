package services

import (
	"testing"
	"time"

	"github.com/diewo77/bon-de-commande/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService() (*OrderService, *fakeClock) {
	store, clock := newTestStore(time.Hour)
	svc := NewOrderService(store)
	svc.now = clock.Now
	return svc, clock
}

func strPtr(s string) *string { return &s }

func TestOrderServiceItems(t *testing.T) {
	svc, _ := newTestOrderService()
	const sid = "s1"

	svc.AddItem(sid)
	svc.AddItem(sid)
	for i := 0; i < 2; i++ {
		_, err := svc.UpdateItemFields(sid, i, map[models.Field]string{
			models.FieldReference: "REF",
			models.FieldQuantity:  "2",
			models.FieldUnitPrice: "10",
			models.FieldDiscount:  "10",
		})
		require.NoError(t, err)
	}

	form := svc.Form(sid)
	ht, ttc := svc.ComputeTotals(form)
	assert.Equal(t, "36.00", ht.StringFixed(2))
	assert.Equal(t, "43.20", ttc.StringFixed(2))

	form, err := svc.RemoveItem(sid, 0)
	require.NoError(t, err)
	assert.Len(t, form.Items, 1)
}

func TestOrderServiceUpdateItemByName(t *testing.T) {
	svc, _ := newTestOrderService()
	svc.AddItem("s")

	form, err := svc.UpdateItem("s", 0, "prixHT", "12,5")
	require.NoError(t, err)
	assert.Equal(t, "12.50", form.Items[0].UnitPriceHT.StringFixed(2))

	_, err = svc.UpdateItem("s", 0, "colour", "red")
	require.ErrorIs(t, err, models.ErrUnknownField)

	_, err = svc.UpdateItem("s", 3, "quantity", "1")
	require.ErrorIs(t, err, models.ErrItemIndex)
}

func TestOrderServiceUpdateItemFieldsIsAtomic(t *testing.T) {
	svc, _ := newTestOrderService()
	svc.AddItem("s")

	_, err := svc.UpdateItemFields("s", 1, map[models.Field]string{models.FieldQuantity: "5"})
	require.ErrorIs(t, err, models.ErrItemIndex)

	_, err = svc.UpdateItemFields("s", 4, nil)
	require.ErrorIs(t, err, models.ErrItemIndex)

	form, err := svc.UpdateItemFields("s", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), form.Items[0].Quantity)
}

func TestOrderServiceUpdateHeader(t *testing.T) {
	svc, clock := newTestOrderService()
	const sid = "s"

	form := svc.UpdateHeader(sid, HeaderUpdate{DocumentType: strPtr("delivery_note")})
	assert.Equal(t, models.DocumentDeliveryNote, form.DocumentType)
	assert.Nil(t, form.EnteredAt, "document type alone does not stamp the entry date")

	form = svc.UpdateHeader(sid, HeaderUpdate{DocumentType: strPtr("invoice")})
	assert.Equal(t, models.DocumentDeliveryNote, form.DocumentType, "unknown type is ignored")

	first := clock.Now()
	form = svc.UpdateHeader(sid, HeaderUpdate{CompanyName: strPtr("Acme Corp"), Email: strPtr("")})
	require.NotNil(t, form.EnteredAt)
	assert.Equal(t, first, *form.EnteredAt)

	clock.Advance(time.Hour)
	form = svc.UpdateHeader(sid, HeaderUpdate{CompanyName: strPtr("Acme Corp"), Email: strPtr("a@b.test")})
	assert.Equal(t, "a@b.test", form.Email)
	assert.Equal(t, first, *form.EnteredAt, "entry date is kept")
}

func TestOrderServiceReset(t *testing.T) {
	svc, _ := newTestOrderService()
	svc.AddItem("s")
	form := svc.Reset("s")
	assert.Empty(t, form.Items)
	assert.Empty(t, svc.Form("s").Items)
}
