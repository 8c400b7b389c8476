package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/diewo77/bon-de-commande/i18n"
	"github.com/diewo77/bon-de-commande/internal/assets"
	"github.com/diewo77/bon-de-commande/internal/models"
	"github.com/diewo77/bon-de-commande/pdf"
)

// Export outcomes reported to the ExportRecorder.
const (
	OutcomeSuccess         = "success"
	OutcomeLogoUnavailable = "logo_unavailable"
	OutcomeRenderError     = "render_error"
)

// ExportRecorder observes finished exports.
type ExportRecorder interface {
	ObserveExport(docType, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveExport(string, string) {}

// Export is a generated document ready to be served.
type Export struct {
	Filename string
	Content  []byte
}

// ExportService turns order forms into PDF documents.
type ExportService struct {
	logo     assets.Source
	recorder ExportRecorder
	loc      *time.Location
	now      func() time.Time
	opts     []pdf.Option
}

// ExportOption configures an ExportService.
type ExportOption func(*ExportService)

// WithRecorder reports export outcomes to r.
func WithRecorder(r ExportRecorder) ExportOption {
	return func(s *ExportService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLocation prints dates in loc instead of the local time zone.
func WithLocation(loc *time.Location) ExportOption {
	return func(s *ExportService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ExportOption {
	return func(s *ExportService) { s.now = now }
}

// WithPDFOptions forwards options to the renderer.
func WithPDFOptions(opts ...pdf.Option) ExportOption {
	return func(s *ExportService) { s.opts = append(s.opts, opts...) }
}

// NewExportService renders with the logo from logo; options override the defaults.
func NewExportService(logo assets.Source, opts ...ExportOption) *ExportService {
	s := &ExportService{logo: logo, recorder: nopRecorder{}, loc: time.Local, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Export renders form. The logo is fetched while the document content is
// prepared; if it cannot be loaded no document is produced.
func (s *ExportService) Export(ctx context.Context, form models.OrderForm) (*Export, error) {
	fut := assets.Fetch(ctx, s.logo)
	data := s.Document(form)

	logo, err := fut.Wait(ctx)
	if err != nil {
		s.recorder.ObserveExport(string(form.DocumentType), OutcomeLogoUnavailable)
		return nil, fmt.Errorf("export %s: %w", form.DocumentType, err)
	}
	data.Logo = &pdf.Image{Data: logo.Data, Type: logo.Type}

	content, err := pdf.OrderPDF(data, s.opts...)
	if err != nil {
		outcome := OutcomeRenderError
		if errors.Is(err, assets.ErrLogoUnavailable) {
			outcome = OutcomeLogoUnavailable
		}
		s.recorder.ObserveExport(string(form.DocumentType), outcome)
		return nil, fmt.Errorf("export %s: %w", form.DocumentType, err)
	}
	s.recorder.ObserveExport(string(form.DocumentType), OutcomeSuccess)
	return &Export{
		Filename: pdf.Filename(string(form.DocumentType), form.CompanyName),
		Content:  content,
	}, nil
}

// Document lays out the printed text of form, without the logo.
func (s *ExportService) Document(form models.OrderForm) pdf.OrderData {
	entered := i18n.T("pdf.not_entered")
	if form.EnteredAt != nil {
		entered = i18n.FormatDateTime(form.EnteredAt.In(s.loc))
	}
	data := pdf.OrderData{
		Title: string(form.DocumentType),
		Meta: []string{
			i18n.T("pdf.company") + ": " + form.CompanyName,
			i18n.T("pdf.email") + ": " + form.Email,
			i18n.T("pdf.created_at") + ": " + i18n.FormatDateTime(s.now().In(s.loc)),
			i18n.T("pdf.entered_at") + ": " + entered,
		},
		Table: pdf.Table{
			Header: []string{
				i18n.T("items.reference"),
				i18n.T("items.quantity"),
				i18n.T("items.unit_price"),
				i18n.T("items.discount"),
				i18n.T("items.total"),
			},
			Align: []string{"L", "R", "R", "R", "R"},
			Rows:  make([][]string, 0, len(form.Items)),
		},
	}
	for _, it := range form.Items {
		data.Table.Rows = append(data.Table.Rows, []string{
			it.Reference,
			strconv.FormatInt(it.Quantity, 10),
			models.FormatAmount(it.UnitPriceHT),
			it.Discount.String(),
			models.FormatAmount(it.Total()),
		})
	}
	totals := models.ComputeTotals(form.Items)
	data.Totals = []string{
		fmt.Sprintf("%s: %s €", i18n.T("totals.ht"), models.FormatAmount(totals.HT)),
		fmt.Sprintf("%s: %s €", i18n.T("totals.ttc"), models.FormatAmount(totals.TTC)),
	}
	return data
}
