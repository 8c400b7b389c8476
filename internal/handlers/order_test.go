package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/bon-de-commande/internal/assets"
	"github.com/diewo77/bon-de-commande/internal/middleware"
	"github.com/diewo77/bon-de-commande/internal/services"
	"github.com/diewo77/bon-de-commande/view"
	"github.com/diewo77/bon-de-commande/web"
)

type brokenLogo struct{}

func (brokenLogo) Load(context.Context) (*assets.Logo, error) {
	return nil, fmt.Errorf("%w: 404 from CDN", assets.ErrLogoUnavailable)
}

type testApp struct {
	t      *testing.T
	router http.Handler
	sid    string
}

func newTestApp(t *testing.T, logo assets.Source) *testApp {
	t.Helper()
	orders := services.NewOrderService(services.NewFormStore(time.Hour))
	exports := services.NewExportService(logo)
	views := view.New(web.Templates(), web.Static())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewOrderHandler(orders, exports, views, logger)

	r := chi.NewRouter()
	r.Post("/api/render", h.RenderStateless)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionOptions{CookieName: "sid", TTL: time.Hour}))
		r.Get("/", h.Show)
		r.Post("/form", h.UpdateHeader)
		r.Post("/form/reset", h.Reset)
		r.Post("/items", h.AddItem)
		r.Post("/items/{index}", h.UpdateItem)
		r.Post("/items/{index}/delete", h.RemoveItem)
		r.Delete("/items/{index}", h.RemoveItem)
		r.Get("/export", h.Export)
	})
	return &testApp{t: t, router: r, sid: uuid.NewString()}
}

func (a *testApp) do(method, path, contentType string, body io.Reader, accept string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: a.sid})
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testApp) json(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	ct := ""
	if body != "" {
		rd = strings.NewReader(body)
		ct = "application/json"
	}
	return a.do(method, path, ct, rd, "application/json")
}

func (a *testApp) form(path, values string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(values), "text/html")
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) formView {
	t.Helper()
	var v formView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body.Error
}

func pngLogo(t *testing.T) assets.BytesSource {
	t.Helper()
	return assets.BytesSource(web.DefaultLogo())
}

func TestShowEmptyForm(t *testing.T) {
	app := newTestApp(t, pngLogo(t))
	rr := app.json(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)

	v := decodeView(t, rr)
	assert.Equal(t, "Bon de commande", string(v.DocumentType))
	assert.Empty(t, v.Items)
	assert.Equal(t, "0.00", v.TotalHT)
	assert.Equal(t, "0.00", v.TotalTTC)
}

func TestItemLifecycleJSON(t *testing.T) {
	app := newTestApp(t, pngLogo(t))

	for i := 0; i < 2; i++ {
		rr := app.json(http.MethodPost, "/items", "")
		require.Equal(t, http.StatusCreated, rr.Code)
		v := decodeView(t, rr)
		require.Len(t, v.Items, i+1)
		assert.Equal(t, int64(1), v.Items[i].Quantity)
		assert.Equal(t, "0.00", v.Items[i].Total)

		rr = app.json(http.MethodPost, fmt.Sprintf("/items/%d", i), `{"reference":"REF","quantity":2,"unit_price_ht":"10","discount":10}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "18.00", decodeView(t, rr).Items[i].Total)
	}

	v := decodeView(t, app.json(http.MethodGet, "/", ""))
	assert.Equal(t, "36.00", v.TotalHT)
	assert.Equal(t, "43.20", v.TotalTTC)

	rr := app.json(http.MethodDelete, "/items/0", "")
	require.Equal(t, http.StatusOK, rr.Code)
	v = decodeView(t, rr)
	assert.Len(t, v.Items, 1)
	assert.Equal(t, "18.00", v.TotalHT)
	assert.Equal(t, "21.60", v.TotalTTC)
}

func TestItemErrorsJSON(t *testing.T) {
	app := newTestApp(t, pngLogo(t))
	app.json(http.MethodPost, "/items", "")

	tests := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"index out of range", http.MethodPost, "/items/5", `{"quantity":3}`, http.StatusNotFound, "item_not_found"},
		{"negative index", http.MethodPost, "/items/-1", `{"quantity":3}`, http.StatusNotFound, "item_not_found"},
		{"non numeric index", http.MethodPost, "/items/abc", `{"quantity":3}`, http.StatusNotFound, "item_not_found"},
		{"remove out of range", http.MethodDelete, "/items/9", "", http.StatusNotFound, "item_not_found"},
		{"unknown field", http.MethodPost, "/items/0", `{"colour":"red"}`, http.StatusBadRequest, "unknown_field"},
		{"malformed json", http.MethodPost, "/items/0", `{"quantity":`, http.StatusBadRequest, "invalid_json"},
		{"nested value", http.MethodPost, "/items/0", `{"quantity":{"n":1}}`, http.StatusBadRequest, "invalid_json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := app.json(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}

	v := decodeView(t, app.json(http.MethodGet, "/", ""))
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(1), v.Items[0].Quantity, "failed edits leave the form unchanged")
}

func TestHeaderUpdateJSON(t *testing.T) {
	app := newTestApp(t, pngLogo(t))
	rr := app.json(http.MethodPost, "/form", `{"document_type":"delivery_note","company_name":"Acme Corp"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	v := decodeView(t, rr)
	assert.Equal(t, "Bon de livraison", string(v.DocumentType))
	assert.Equal(t, "Acme Corp", v.CompanyName)
	assert.NotNil(t, v.EnteredAt)

	rr = app.json(http.MethodPost, "/form/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeView(t, rr).CompanyName)
}

func TestHTMLFlow(t *testing.T) {
	app := newTestApp(t, pngLogo(t))

	rr := app.form("/items", "")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = app.form("/items/0", "reference=ABC&quantity=2&unit_price_ht=10%2C00&discount=10")
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.form("/form", "document_type=Bon+de+commande&company_name=Dupont&email=")
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.do(http.MethodGet, "/", "", nil, "text/html")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, `value="ABC"`)
	assert.Contains(t, body, `value="Dupont"`)
	assert.Contains(t, body, "18.00")
	assert.Contains(t, body, "21.60 €")
	assert.NotContains(t, body, `role="alert"`)

	rr = app.form("/items/0/delete", "")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, app.do(http.MethodGet, "/", "", nil, "text/html").Body.String(), "Aucun article")
}

func TestHTMLErrorShowsAlert(t *testing.T) {
	app := newTestApp(t, pngLogo(t))
	rr := app.form("/items/3", "quantity=1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Article introuvable.")
	assert.Contains(t, rr.Body.String(), `role="alert"`)
}

func TestExport(t *testing.T) {
	app := newTestApp(t, pngLogo(t))
	app.json(http.MethodPost, "/form", `{"company_name":"Acme Corp"}`)
	app.json(http.MethodPost, "/items", "")

	rr := app.do(http.MethodGet, "/export", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	cd := rr.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(cd, "attachment"), cd)
	assert.Contains(t, cd, "Bon_de_commande_Acme_Corp.pdf")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))
}

func TestExportBlankCompanyFilename(t *testing.T) {
	app := newTestApp(t, pngLogo(t))
	app.json(http.MethodPost, "/form", `{"document_type":"Bon de livraison"}`)
	rr := app.do(http.MethodGet, "/export", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Bon_de_livraison_document.pdf")
}

func TestExportLogoFailure(t *testing.T) {
	app := newTestApp(t, brokenLogo{})

	rr := app.do(http.MethodGet, "/export", "", nil, "text/html")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Impossible de charger le logo.")
	assert.Empty(t, rr.Header().Get("Content-Disposition"))
	assert.NotContains(t, rr.Body.String(), "%PDF")

	rr = app.json(http.MethodGet, "/export", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "logo_unavailable", errorCode(t, rr))
}

func TestRenderStateless(t *testing.T) {
	app := newTestApp(t, pngLogo(t))
	body := `{"document_type":"Bon de commande","company_name":"Acme Corp","items":[{"reference":"A","quantity":2,"unit_price_ht":"10","discount":"10"}]}`

	rr := app.json(http.MethodPost, "/api/render", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Bon_de_commande_Acme_Corp.pdf")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))

	// the session is untouched
	assert.Empty(t, decodeView(t, app.json(http.MethodGet, "/", "")).Items)

	rr = app.json(http.MethodPost, "/api/render", `{"items":[`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", errorCode(t, rr))
}

func TestRenderStatelessLogoFailure(t *testing.T) {
	app := newTestApp(t, brokenLogo{})
	rr := app.json(http.MethodPost, "/api/render", `{"items":[]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "logo_unavailable", errorCode(t, rr))
}
