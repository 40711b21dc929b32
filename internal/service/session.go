package service

import (
	"context"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/checkout"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/export"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/metrics"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/navigation"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/selection"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Session is one visitor's walk through the booking pipeline. All fields
// below mu are only touched with mu held.
type Session struct {
	id  string
	log *zap.Logger

	// lastSeen is guarded by Storefront.mu.
	lastSeen time.Time

	mu sync.Mutex

	nav      *navigation.Controller
	sel      *selection.Model
	base     *model.CheckoutInfo
	form     *checkout.Form
	exporter *export.Exporter

	paymentTimer *time.Timer
	cancelExport context.CancelFunc
	exportGen    int
}

func (s *Storefront) newSession(id string) *Session {
	sess := &Session{
		id:       id,
		log:      s.log.With(zap.String("session_id", id)),
		lastSeen: s.opts.Now(),
		sel:      selection.New(nil),
	}
	sess.exporter = export.NewExporter(append([]export.Option{
		export.WithBannerSource(export.PosterBanner{OnFallback: func(event model.Event, err error) {
			sess.log.Warn("poster unavailable, using placeholder banner",
				zap.String("event_id", event.ID),
				zap.String("poster", event.PosterPath),
				zap.Error(err),
			)
		}}),
		export.WithStateHook(func(from, to export.State) {
			sess.log.Debug("export state", zap.String("from", string(from)), zap.String("to", string(to)))
		}),
	}, s.opts.Export...)...)
	sess.nav = navigation.NewController(s.assembler, navigation.WithObserver(func(t navigation.Transition) {
		s.onTransition(sess, t)
	}))
	return sess
}

// onTransition keeps the page-scoped models in step with the controller. It
// runs inside Navigate, so the session lock is already held.
func (s *Storefront) onTransition(sess *Session, t navigation.Transition) {
	metrics.Navigation(t.Page.String(), t.Fallback)
	if t.Fallback {
		sess.log.Warn("navigation fell back",
			zap.String("from", t.From.String()),
			zap.String("requested", t.Requested.String()),
			zap.String("page", t.Page.String()),
			zap.String("reason", t.Reason),
		)
	} else {
		sess.log.Debug("navigated", zap.String("from", t.From.String()), zap.String("page", t.Page.String()))
	}

	if t.From == navigation.TicketDisplay && t.Page != navigation.TicketDisplay {
		sess.cancelRunningExport()
	}
	if t.From == navigation.PaymentLoading && t.Page != navigation.PaymentLoading {
		sess.stopPayment()
	}

	switch page := t.Page; {
	case page.IsBrowse():
		sess.sel.Bind(nil)
		sess.base, sess.form = nil, nil
	case page == navigation.EventDetail:
		sess.sel.Bind(sess.nav.SelectedEvent())
		// Arriving from another page always starts a fresh selection.
		if t.From != navigation.EventDetail {
			sess.sel.Reset()
		}
		sess.base, sess.form = nil, nil
	case page == navigation.Checkout:
		if sess.base == nil {
			sess.base = sess.nav.CheckoutInfo()
		}
		if sess.form == nil && sess.base != nil {
			sess.form = checkout.NewForm(*sess.base, s.opts.Coupons)
		}
	case page == navigation.PaymentLoading:
		if rec := sess.nav.Transaction(); rec != nil {
			metrics.Transaction(rec.Checkout.Event.ID, rec.TicketCount())
			sess.log.Info("transaction assembled",
				zap.String("transaction_id", rec.TransactionID),
				zap.String("order_id", rec.OrderID),
				zap.Int("tickets", rec.TicketCount()),
				zap.String("total", rec.Checkout.TotalPrice.String()),
			)
			s.schedulePayment(sess, rec)
		}
	}
}

func (sess *Session) stopPayment() {
	if sess.paymentTimer != nil {
		sess.paymentTimer.Stop()
		sess.paymentTimer = nil
	}
}

func (sess *Session) cancelRunningExport() {
	if sess.cancelExport != nil {
		sess.cancelExport()
		sess.cancelExport = nil
	}
}

// SelectionView is the visible state of the ticket selection.
type SelectionView struct {
	EventID       string                 `json:"event_id"`
	Lines         []model.SelectedTicket `json:"lines"`
	TotalQuantity int                    `json:"total_quantity"`
	TotalPrice    decimal.Decimal        `json:"total_price"`
	TotalDisplay  string                 `json:"total_display"`
}

// FormView is the visible state of the checkout form.
type FormView struct {
	Buyer          model.BuyerRecord          `json:"buyer"`
	CountryCode    string                     `json:"country_code"`
	LocalNumber    string                     `json:"local_number"`
	Holders        []model.TicketHolderRecord `json:"holders"`
	Coupon         *checkout.CouponDecision   `json:"coupon,omitempty"`
	OriginalPrice  decimal.Decimal            `json:"original_price"`
	EffectivePrice decimal.Decimal            `json:"effective_price"`
	PriceDisplay   string                     `json:"price_display"`
	Dirty          bool                       `json:"dirty"`
}

// State is a consistent snapshot of a session.
type State struct {
	SessionID string `json:"session_id"`
	navigation.View
	Selection *SelectionView `json:"selection,omitempty"`
	Form      *FormView      `json:"form,omitempty"`
	Export    export.State   `json:"export_state"`
}

func (sess *Session) state() State {
	st := State{SessionID: sess.id, View: sess.nav.View(), Export: sess.exporter.State()}
	if ev := sess.sel.Event(); ev != nil && sess.nav.Current() == navigation.EventDetail {
		st.Selection = &SelectionView{
			EventID:       ev.ID,
			Lines:         sess.sel.Lines(),
			TotalQuantity: sess.sel.TotalQuantity(),
			TotalPrice:    sess.sel.TotalPrice(),
			TotalDisplay:  model.FormatRupiah(sess.sel.TotalPrice()),
		}
	}
	if sess.form != nil && sess.nav.Current() == navigation.Checkout {
		cc, local := sess.form.PhoneParts()
		fv := &FormView{
			Buyer:          sess.form.Buyer(),
			CountryCode:    cc,
			LocalNumber:    local,
			Holders:        sess.form.Holders(),
			OriginalPrice:  sess.form.OriginalPrice(),
			EffectivePrice: sess.form.EffectivePrice(),
			PriceDisplay:   model.FormatRupiah(sess.form.EffectivePrice()),
			Dirty:          sess.form.IsDirty(),
		}
		if d, ok := sess.form.Coupon(); ok {
			fv.Coupon = &d
		}
		st.Form = fv
	}
	return st
}
