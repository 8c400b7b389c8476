// Package handlers serves the order form over HTTP, as HTML pages or JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diewo77/bon-de-commande/httpx"
	"github.com/diewo77/bon-de-commande/i18n"
	"github.com/diewo77/bon-de-commande/internal/assets"
	"github.com/diewo77/bon-de-commande/internal/middleware"
	"github.com/diewo77/bon-de-commande/internal/models"
	"github.com/diewo77/bon-de-commande/internal/services"
)

const maxBodySize = 1 << 20

const formTemplate = "order_form.html"

// Renderer executes an HTML page.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error
}

// OrderHandler serves the session's order form and its PDF export.
type OrderHandler struct {
	orders  *services.OrderService
	exports *services.ExportService
	views   Renderer
	logger  *slog.Logger
}

// NewOrderHandler builds the handler; a nil logger falls back to slog.Default.
func NewOrderHandler(orders *services.OrderService, exports *services.ExportService, views Renderer, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{orders: orders, exports: exports, views: views, logger: logger}
}

type itemView struct {
	models.LineItem
	Total string `json:"total"`
}

type formView struct {
	DocumentType models.DocumentType `json:"document_type"`
	CompanyName  string              `json:"company_name"`
	Email        string              `json:"email"`
	EnteredAt    *time.Time          `json:"entered_at,omitempty"`
	Items        []itemView          `json:"items"`
	TotalHT      string              `json:"total_ht"`
	TotalTTC     string              `json:"total_ttc"`
}

func newFormView(f models.OrderForm) formView {
	totals := models.ComputeTotals(f.Items)
	v := formView{
		DocumentType: f.DocumentType,
		CompanyName:  f.CompanyName,
		Email:        f.Email,
		EnteredAt:    f.EnteredAt,
		Items:        make([]itemView, 0, len(f.Items)),
		TotalHT:      models.FormatAmount(totals.HT),
		TotalTTC:     models.FormatAmount(totals.TTC),
	}
	for _, it := range f.Items {
		v.Items = append(v.Items, itemView{LineItem: it, Total: models.FormatAmount(it.Total())})
	}
	return v
}

// Show renders the session's form.
func (h *OrderHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.orders.Form(middleware.SessionID(r)))
}

type headerRequest struct {
	DocumentType *string `json:"document_type"`
	CompanyName  *string `json:"company_name"`
	Email        *string `json:"email"`
}

// UpdateHeader changes the document type, company name or e-mail.
func (h *OrderHandler) UpdateHeader(w http.ResponseWriter, r *http.Request) {
	var req headerRequest
	if isJSONBody(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			h.badJSON(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, http.StatusBadRequest, "invalid_form", "error.invalid_input")
			return
		}
		req.DocumentType = formValue(r, "document_type")
		req.CompanyName = formValue(r, "company_name")
		req.Email = formValue(r, "email")
	}
	form := h.orders.UpdateHeader(middleware.SessionID(r), services.HeaderUpdate{
		DocumentType: req.DocumentType,
		CompanyName:  req.CompanyName,
		Email:        req.Email,
	})
	h.done(w, r, http.StatusOK, form)
}

// Reset starts a new blank form.
func (h *OrderHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, http.StatusOK, h.orders.Reset(middleware.SessionID(r)))
}

// AddItem appends a row.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, http.StatusCreated, h.orders.AddItem(middleware.SessionID(r)))
}

// UpdateItem sets the submitted fields of the row named in the path.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	index, ok := h.index(w, r)
	if !ok {
		return
	}
	var raw map[string]string
	if isJSONBody(r) {
		var err error
		if raw, err = decodeFields(w, r); err != nil {
			h.badJSON(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, http.StatusBadRequest, "invalid_form", "error.invalid_input")
			return
		}
		raw = make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			raw[k] = r.PostForm.Get(k)
		}
	}
	values := make(map[models.Field]string, len(raw))
	for name, v := range raw {
		fld, err := models.ParseField(name)
		if err != nil {
			h.editError(w, r, err)
			return
		}
		values[fld] = v
	}
	form, err := h.orders.UpdateItemFields(middleware.SessionID(r), index, values)
	if err != nil {
		h.editError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, form)
}

// RemoveItem drops the row named in the path.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, ok := h.index(w, r)
	if !ok {
		return
	}
	form, err := h.orders.RemoveItem(middleware.SessionID(r), index)
	if err != nil {
		h.editError(w, r, err)
		return
	}
	h.done(w, r, http.StatusOK, form)
}

// Export downloads the session's form as a PDF.
func (h *OrderHandler) Export(w http.ResponseWriter, r *http.Request) {
	form := h.orders.Form(middleware.SessionID(r))
	out, err := h.exports.Export(r.Context(), form)
	if err != nil {
		h.exportError(w, r, err)
		return
	}
	httpx.Attachment(w, out.Filename, "application/pdf", out.Content)
}

// RenderStateless renders a form posted as JSON without touching the session.
func (h *OrderHandler) RenderStateless(w http.ResponseWriter, r *http.Request) {
	var form models.OrderForm
	if err := decodeJSON(w, r, &form); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.exports.Export(r.Context(), form.Normalize())
	if err != nil {
		h.logExportError(r, err)
		if errors.Is(err, assets.ErrLogoUnavailable) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "logo_unavailable", i18n.T("error.logo"))
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_error", i18n.T("error.pdf"))
		return
	}
	httpx.Attachment(w, out.Filename, "application/pdf", out.Content)
}

func (h *OrderHandler) index(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.editError(w, r, fmt.Errorf("%w: %q", models.ErrItemIndex, chi.URLParam(r, "index")))
		return 0, false
	}
	return index, true
}

func (h *OrderHandler) editError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrItemIndex):
		h.fail(w, r, http.StatusNotFound, "item_not_found", "error.item_not_found")
	case errors.Is(err, models.ErrUnknownField):
		h.fail(w, r, http.StatusBadRequest, "unknown_field", "error.unknown_field")
	default:
		h.logger.Error("edit form", slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError, "internal_error", "error.internal")
	}
}

func (h *OrderHandler) exportError(w http.ResponseWriter, r *http.Request, err error) {
	h.logExportError(r, err)
	if errors.Is(err, assets.ErrLogoUnavailable) {
		h.fail(w, r, http.StatusServiceUnavailable, "logo_unavailable", "error.logo")
		return
	}
	h.fail(w, r, http.StatusInternalServerError, "pdf_error", "error.pdf")
}

func (h *OrderHandler) logExportError(r *http.Request, err error) {
	level := slog.LevelError
	if errors.Is(err, assets.ErrLogoUnavailable) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, "export failed", slog.Any("error", err))
}

func (h *OrderHandler) badJSON(w http.ResponseWriter, r *http.Request, err error) {
	if httpx.WantsJSON(r) || isJSONBody(r) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.fail(w, r, http.StatusBadRequest, "invalid_json", "error.invalid_input")
}

// fail reports an error as JSON, or re-renders the form with a blocking alert.
func (h *OrderHandler) fail(w http.ResponseWriter, r *http.Request, status int, code, msgKey string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, code, i18n.T(msgKey))
		return
	}
	h.page(w, r, status, h.orders.Form(middleware.SessionID(r)), i18n.T(msgKey))
}

// done answers a successful edit: the form as JSON, or a redirect back to it.
func (h *OrderHandler) done(w http.ResponseWriter, r *http.Request, status int, form models.OrderForm) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, newFormView(form))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request, status int, form models.OrderForm) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, newFormView(form))
		return
	}
	h.page(w, r, status, form, "")
}

func (h *OrderHandler) page(w http.ResponseWriter, r *http.Request, status int, form models.OrderForm, alert string) {
	err := h.views.Render(w, r, status, formTemplate, map[string]any{
		"Form":          form,
		"Totals":        models.ComputeTotals(form.Items),
		"DocumentTypes": models.DocumentTypes,
		"Error":         alert,
	})
	if err != nil {
		h.logger.Error("render page", slog.String("template", formTemplate), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func formValue(r *http.Request, key string) *string {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	v := r.PostForm.Get(key)
	return &v
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// decodeFields reads a JSON object whose values are strings or numbers.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	out := make(map[string]string, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case nil:
			out[k] = ""
		default:
			return nil, fmt.Errorf("field %q: expected a string or a number", k)
		}
	}
	return out, nil
}
