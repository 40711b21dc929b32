// Package export renders the issued tickets of a transaction into one
// downloadable PDF, one A4 page per ticket in flattening order.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// State is the export lifecycle: idle -> rendering -> done | failed.
// A failed export returns to idle so it can be retried.
type State string

const (
	Idle      State = "idle"
	Rendering State = "rendering"
	Done      State = "done"
	Failed    State = "failed"
)

var (
	// ErrExportInProgress is returned when an export is requested while
	// another one is rendering. Requests are not queued.
	ErrExportInProgress = errors.New("ticket export already in progress")
	// ErrNothingToExport is returned for a record without tickets.
	ErrNothingToExport = errors.New("transaction has no tickets to export")
)

// RenderError reports the ticket whose stub could not be rendered. When it
// is returned no document was produced.
type RenderError struct {
	Index        int
	TicketNumber string
	Err          error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render ticket %d (%s): %v", e.Index+1, e.TicketNumber, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Document is a finished export.
type Document struct {
	Name  string
	Pages int
	Data  []byte
}

// Branding is the printed footer and organizer text.
type Branding struct {
	Name      string
	Site      string
	Organizer string
	Company   string
	Tagline   string
}

// DefaultBranding is the storefront's own branding.
var DefaultBranding = Branding{
	Name:      "Hegra",
	Site:      "www.hegra.com",
	Organizer: "Hegra Events Official",
	Company:   "PT Hegra Digital Nusantara",
	Tagline:   "Rencanakan atau Temukan Event Impianmu Berikutnya di Hegra!",
}

// Exporter renders ticket documents. One Exporter serves one session; it
// refuses concurrent exports.
type Exporter struct {
	codes    CodeEncoder
	banners  BannerSource
	brand    Branding
	compress bool
	now      func() time.Time
	onState  func(from, to State)

	mu    sync.Mutex
	state State
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithCodeEncoder replaces the QR encoder.
func WithCodeEncoder(c CodeEncoder) Option { return func(e *Exporter) { e.codes = c } }

// WithBannerSource replaces the poster loader.
func WithBannerSource(b BannerSource) Option { return func(e *Exporter) { e.banners = b } }

// WithBranding sets the footer branding.
func WithBranding(b Branding) Option { return func(e *Exporter) { e.brand = b } }

// WithCompression toggles PDF stream compression (on by default).
func WithCompression(on bool) Option { return func(e *Exporter) { e.compress = on } }

// WithStateHook observes every state change.
func WithStateHook(fn func(from, to State)) Option { return func(e *Exporter) { e.onState = fn } }

// WithClock sets the time source used for document dates and the footer year.
func WithClock(now func() time.Time) Option { return func(e *Exporter) { e.now = now } }

// NewExporter returns an idle exporter.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{
		codes:    QREncoder{Level: qrcode.Medium},
		banners:  PosterBanner{},
		brand:    DefaultBranding,
		compress: true,
		now:      time.Now,
		state:    Idle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current export state.
func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Exporter) setState(to State) {
	e.mu.Lock()
	from := e.state
	e.state = to
	e.mu.Unlock()
	if e.onState != nil && from != to {
		e.onState(from, to)
	}
}

func (e *Exporter) begin() error {
	e.mu.Lock()
	if e.state == Rendering {
		e.mu.Unlock()
		return ErrExportInProgress
	}
	from := e.state
	e.state = Rendering
	e.mu.Unlock()
	if e.onState != nil {
		e.onState(from, Rendering)
	}
	return nil
}

// FileName is the download name for an order's tickets.
func (e *Exporter) FileName(orderID string) string {
	return fmt.Sprintf("%s-Tickets-%s.pdf", e.brand.Name, orderID)
}

// ExportAll renders every ticket of rec. Pages are produced strictly in
// ticket order; the first failing stub aborts the export with a
// *RenderError. Cancelling ctx aborts between pages.
func (e *Exporter) ExportAll(ctx context.Context, rec *model.TransactionRecord) (doc *Document, err error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			e.setState(Failed)
			e.setState(Idle)
			return
		}
		e.setState(Done)
	}()

	if rec == nil || len(rec.Tickets) == 0 {
		return nil, ErrNothingToExport
	}

	now := e.now()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("%s Tickets %s", e.brand.Name, rec.OrderID), true)
	pdf.SetCreator(e.brand.Name, true)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)

	r := &stubRenderer{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		codes:   e.codes,
		banners: e.banners,
		brand:   e.brand,
		year:    now.Year(),
		images:  make(map[string]string),
	}

	for i, tk := range rec.Tickets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export aborted before ticket %d: %w", i+1, err)
		}
		if err := r.render(ctx, rec, tk); err != nil {
			return nil, &RenderError{Index: i, TicketNumber: tk.TicketNumber, Err: err}
		}
		if err := pdf.Error(); err != nil {
			return nil, &RenderError{Index: i, TicketNumber: tk.TicketNumber, Err: err}
		}
	}

	if pages := pdf.PageNo(); pages != len(rec.Tickets) {
		return nil, fmt.Errorf("document has %d pages for %d tickets", pages, len(rec.Tickets))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	return &Document{
		Name:  e.FileName(rec.OrderID),
		Pages: len(rec.Tickets),
		Data:  buf.Bytes(),
	}, nil
}
