package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/checkout"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/export"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/metrics"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/navigation"
	"go.uber.org/zap"
)

// State returns the session snapshot.
func (s *Storefront) State(id string) (State, error) {
	return s.do(id, func(*Session) error { return nil })
}

// require fails unless the session is on page and no confirmation is open.
func (sess *Session) require(page navigation.Page) error {
	if _, pending := sess.nav.Pending(); pending {
		return navigation.ErrConfirmationPending
	}
	if cur := sess.nav.Current(); cur != page {
		return fmt.Errorf("%w: on %s, need %s", ErrWrongPage, cur, page)
	}
	return nil
}

// goTo is the single entry for visitor-initiated transitions. It decides
// whether leaving the current page would discard work and, if so, opens a
// confirmation instead of navigating.
func (sess *Session) goTo(target navigation.Page, p navigation.Payload) error {
	if _, pending := sess.nav.Pending(); pending {
		return navigation.ErrConfirmationPending
	}
	from := sess.nav.Current()

	switch {
	case from == navigation.EventDetail && !sess.sel.IsEmpty() && leavesEvent(sess, target, p):
		_, err := sess.nav.RequestNavigationWithConfirmation(target, p, sess.sel.Reset)
		return err

	case from == navigation.Checkout && target != navigation.Checkout && target != navigation.PaymentLoading &&
		sess.form != nil && sess.form.IsDirty():
		_, err := sess.nav.RequestNavigationWithConfirmation(target, p, sess.form.Reset, navigation.Steps(2))
		return err

	case from == navigation.PaymentLoading && target != navigation.PaymentLoading && target != navigation.TransactionSuccess:
		_, err := sess.nav.RequestNavigationWithConfirmation(target, p, nil)
		return err
	}

	sess.nav.Navigate(target, p)
	return nil
}

// leavesEvent reports whether target takes the visitor off the current
// event's detail page without checking out.
func leavesEvent(sess *Session, target navigation.Page, p navigation.Payload) bool {
	switch target {
	case navigation.Checkout:
		return false
	case navigation.EventDetail:
		cur := sess.nav.SelectedEvent()
		return p.Event != nil && cur != nil && p.Event.ID != cur.ID
	}
	return true
}

// OpenEvent shows an event's detail page.
func (s *Storefront) OpenEvent(ctx context.Context, id, eventID string) (State, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return State{}, err
	}
	return s.do(id, func(sess *Session) error {
		return sess.goTo(navigation.EventDetail, navigation.Payload{Event: event})
	})
}

// Navigate moves to page, opening a confirmation when that would discard
// work. Checkout and payment are entered through ProceedToCheckout and Submit.
func (s *Storefront) Navigate(id string, page navigation.Page) (State, error) {
	return s.do(id, func(sess *Session) error {
		switch page {
		case navigation.PaymentLoading:
			return fmt.Errorf("%w: payment starts by submitting checkout", ErrWrongPage)
		case navigation.Checkout:
			if sess.nav.Current() != navigation.PaymentLoading {
				return fmt.Errorf("%w: checkout starts from a ticket selection", ErrWrongPage)
			}
			return sess.goTo(page, navigation.Payload{Checkout: sess.base})
		}
		return sess.goTo(page, navigation.Payload{})
	})
}

// ConfirmNavigation accepts the open confirmation step.
func (s *Storefront) ConfirmNavigation(id string) (State, error) {
	return s.do(id, func(sess *Session) error {
		_, _, err := sess.nav.Confirm()
		return err
	})
}

// CancelNavigation declines the open confirmation.
func (s *Storefront) CancelNavigation(id string) (State, error) {
	return s.do(id, func(sess *Session) error {
		return sess.nav.Cancel()
	})
}

// SetQuantity changes the quantity of one category on the event page.
func (s *Storefront) SetQuantity(id, categoryID string, qty int) (State, error) {
	return s.do(id, func(sess *Session) error {
		if err := sess.require(navigation.EventDetail); err != nil {
			return err
		}
		return sess.sel.SetQuantity(categoryID, qty)
	})
}

// ProceedToCheckout freezes the selection and opens the checkout form.
func (s *Storefront) ProceedToCheckout(id string) (State, error) {
	return s.do(id, func(sess *Session) error {
		if err := sess.require(navigation.EventDetail); err != nil {
			return err
		}
		info, err := sess.sel.Checkout()
		if err != nil {
			return err
		}
		sess.base, sess.form = &info, nil
		sess.nav.Navigate(navigation.Checkout, navigation.Payload{Checkout: &info})
		return nil
	})
}

func (s *Storefront) onForm(id string, fn func(*checkout.Form) error) (State, error) {
	return s.do(id, func(sess *Session) error {
		if err := sess.require(navigation.Checkout); err != nil {
			return err
		}
		if sess.form == nil {
			return fmt.Errorf("%w: checkout form not initialised", ErrWrongPage)
		}
		return fn(sess.form)
	})
}

// UpdateBuyer sets one buyer field.
func (s *Storefront) UpdateBuyer(id string, field checkout.BuyerField, value string) (State, error) {
	return s.onForm(id, func(f *checkout.Form) error { return f.UpdateBuyerField(field, value) })
}

// SetPhone sets the buyer's phone as country code plus local number.
func (s *Storefront) SetPhone(id, countryCode, local string) (State, error) {
	return s.onForm(id, func(f *checkout.Form) error { return f.SetPhoneParts(countryCode, local) })
}

// ToggleHolderSync flips whether holder i mirrors the buyer.
func (s *Storefront) ToggleHolderSync(id string, i int) (State, error) {
	return s.onForm(id, func(f *checkout.Form) error {
		_, err := f.ToggleSync(i)
		return err
	})
}

// UpdateHolder sets one field of holder i.
func (s *Storefront) UpdateHolder(id string, i int, field checkout.HolderField, value string) (State, error) {
	return s.onForm(id, func(f *checkout.Form) error { return f.UpdateHolderField(i, field, value) })
}

// ApplyCoupon evaluates a coupon code against the checkout total.
func (s *Storefront) ApplyCoupon(id, code string) (State, error) {
	return s.onForm(id, func(f *checkout.Form) error {
		_, err := f.ApplyCoupon(code)
		switch {
		case err == nil:
			metrics.Coupon("applied")
		case errors.Is(err, checkout.ErrCouponEmpty):
			metrics.Coupon("empty")
		default:
			metrics.Coupon("invalid")
		}
		return err
	})
}

// Submit validates the form and starts payment, which assembles the
// transaction record.
func (s *Storefront) Submit(id string) (State, error) {
	return s.do(id, func(sess *Session) error {
		if err := sess.require(navigation.Checkout); err != nil {
			return err
		}
		if sess.form == nil {
			return fmt.Errorf("%w: checkout form not initialised", ErrWrongPage)
		}
		sub, err := sess.form.Submit()
		if err != nil {
			return err
		}
		res := sess.nav.Navigate(navigation.PaymentLoading, navigation.Payload{Submission: &sub})
		if res.Fallback {
			return fmt.Errorf("start payment: %s", res.Reason)
		}
		return nil
	})
}

// schedulePayment arms the simulated payment for rec. Called with the
// session lock held.
func (s *Storefront) schedulePayment(sess *Session, rec *model.TransactionRecord) {
	sess.stopPayment()
	if s.opts.PaymentDelay <= 0 {
		return
	}
	sess.paymentTimer = time.AfterFunc(s.opts.PaymentDelay, func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if err := s.finishPayment(sess, rec); err != nil && !errors.Is(err, ErrPaymentAbandoned) {
			sess.log.Error("complete payment", zap.Error(err))
		}
	})
}

// CompletePayment finishes the running payment immediately.
func (s *Storefront) CompletePayment(id string) (State, error) {
	return s.do(id, func(sess *Session) error {
		if err := sess.require(navigation.PaymentLoading); err != nil {
			return err
		}
		return s.finishPayment(sess, sess.nav.Transaction())
	})
}

// finishPayment moves to the success page if rec is still the payment in
// progress. Called with the session lock held.
func (s *Storefront) finishPayment(sess *Session, rec *model.TransactionRecord) error {
	if rec == nil || sess.nav.Current() != navigation.PaymentLoading || sess.nav.Transaction() != rec {
		return ErrPaymentAbandoned
	}
	// Any open confirmation to leave payment is dropped here.
	sess.nav.Navigate(navigation.TransactionSuccess, navigation.Payload{})
	if err := s.opts.Notifier.TicketsIssued(context.Background(), rec); err != nil {
		sess.log.Warn("ticket notification failed", zap.String("order_id", rec.OrderID), zap.Error(err))
	}
	return nil
}

// ViewTickets opens the ticket list of the completed transaction.
func (s *Storefront) ViewTickets(id string) (State, error) {
	return s.do(id, func(sess *Session) error {
		if err := sess.require(navigation.TransactionSuccess); err != nil {
			return err
		}
		return sess.goTo(navigation.TicketDisplay, navigation.Payload{})
	})
}

// ExportTickets renders the session's tickets into one PDF. The session
// stays usable while rendering; leaving the ticket page cancels the export.
func (s *Storefront) ExportTickets(ctx context.Context, id string) (*export.Document, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if err := sess.require(navigation.TicketDisplay); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	if sess.cancelExport != nil {
		sess.mu.Unlock()
		return nil, export.ErrExportInProgress
	}
	rec := sess.nav.Transaction()
	ctx, cancel := context.WithCancel(ctx)
	sess.cancelExport = cancel
	sess.exportGen++
	gen := sess.exportGen
	sess.mu.Unlock()

	start := time.Now()
	doc, err := sess.exporter.ExportAll(ctx, rec)
	took := time.Since(start)
	cancel()

	sess.mu.Lock()
	if sess.exportGen == gen {
		sess.cancelExport = nil
	}
	sess.mu.Unlock()

	if err != nil {
		result := "failed"
		if errors.Is(err, context.Canceled) {
			result = "cancelled"
		}
		metrics.Export(result, took)
		sess.log.Warn("ticket export failed", zap.String("order_id", rec.OrderID), zap.Error(err))
		return nil, err
	}
	metrics.Export("done", took)
	sess.log.Info("tickets exported",
		zap.String("order_id", rec.OrderID),
		zap.String("file", doc.Name),
		zap.Int("pages", doc.Pages),
		zap.Duration("took", took),
	)
	return doc, nil
}
