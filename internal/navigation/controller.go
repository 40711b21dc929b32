package navigation

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
)

var (
	// ErrConfirmationPending is returned when a guarded request arrives while
	// another one still awaits Confirm or Cancel.
	ErrConfirmationPending = errors.New("another navigation is awaiting confirmation")
	// ErrNoPendingNavigation is returned by Confirm and Cancel when nothing is pending.
	ErrNoPendingNavigation = errors.New("no navigation awaiting confirmation")
)

// Payload carries the caller-supplied data for a transition. Which field is
// read depends on the target page.
type Payload struct {
	Event      *model.Event
	Checkout   *model.CheckoutInfo
	Submission *model.Submission
}

// Assembler builds the transaction record when payment starts.
type Assembler interface {
	Assemble(sub model.Submission) (*model.TransactionRecord, error)
}

// Result describes where a transition actually landed.
type Result struct {
	Requested Page   `json:"requested"`
	Page      Page   `json:"page"`
	Fallback  bool   `json:"fallback"`
	Reason    string `json:"reason,omitempty"`
}

// Transition is reported to the observer after every completed navigation.
type Transition struct {
	From Page
	Result
}

// Observer is notified of completed transitions.
type Observer func(Transition)

// View is a consistent snapshot of the controller. Context fields are only
// set when the current page requires them.
type View struct {
	Page        Page                     `json:"page"`
	Event       *model.Event             `json:"selected_event,omitempty"`
	Checkout    *model.CheckoutInfo      `json:"checkout_info,omitempty"`
	Transaction *model.TransactionRecord `json:"transaction,omitempty"`
	Prompt      *Prompt                  `json:"pending_confirmation,omitempty"`
}

type pending struct {
	target      Page
	payload     Payload
	onConfirmed func()
	step        int
	steps       int
}

// RequestOption tunes a guarded navigation request.
type RequestOption func(*pending)

// Steps requires n consecutive confirmations before the transition runs.
func Steps(n int) RequestOption {
	return func(p *pending) {
		if n > 1 {
			p.steps = n
		}
	}
}

// Controller is the single owner of the current page. Every page change goes
// through Navigate or the confirmation protocol; there is no setter.
type Controller struct {
	current  Page
	event    *model.Event
	checkout *model.CheckoutInfo
	record   *model.TransactionRecord
	pending  *pending

	assembler Assembler
	observer  Observer
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// NewController starts on the landing page.
func NewController(assembler Assembler, opts ...Option) *Controller {
	c := &Controller{current: Landing, assembler: assembler}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the current page.
func (c *Controller) Current() Page { return c.current }

// SelectedEvent returns the event in context, or nil.
func (c *Controller) SelectedEvent() *model.Event { return c.event }

// CheckoutInfo returns the checkout in context, or nil.
func (c *Controller) CheckoutInfo() *model.CheckoutInfo { return c.checkout }

// Transaction returns the assembled transaction record, or nil.
func (c *Controller) Transaction() *model.TransactionRecord { return c.record }

// state is the full set of context objects a transition may produce.
type state struct {
	event    *model.Event
	checkout *model.CheckoutInfo
	record   *model.TransactionRecord
}

// resolve computes the context for entering page without touching the
// controller. A non-empty reason means the page's requirement is not met.
func (c *Controller) resolve(page Page, p Payload) (state, string) {
	cur := state{event: c.event, checkout: c.checkout, record: c.record}

	switch {
	case page.IsBrowse():
		return state{}, ""

	case page == EventDetail:
		ev := p.Event
		if ev == nil {
			ev = cur.event
		}
		if ev == nil && cur.checkout != nil {
			e := cur.checkout.Event
			ev = &e
		}
		if ev == nil {
			return state{}, "event detail requires an event"
		}
		return state{event: ev}, ""

	case page == Checkout:
		info := p.Checkout
		if info == nil {
			info = cur.checkout
		}
		if info == nil {
			return state{}, "checkout requires checkout info"
		}
		if info.TotalQuantity() == 0 {
			return state{}, "checkout requires at least one ticket"
		}
		ev := info.Event
		return state{event: &ev, checkout: info}, ""

	case page == PaymentLoading:
		if p.Submission == nil {
			return state{}, "payment requires a completed checkout submission"
		}
		if c.assembler == nil {
			return state{}, "no transaction assembler configured"
		}
		rec, err := c.assembler.Assemble(*p.Submission)
		if err != nil {
			return state{}, fmt.Sprintf("assemble transaction: %v", err)
		}
		ev := p.Submission.Checkout.Event
		info := p.Submission.Checkout
		return state{event: &ev, checkout: &info, record: rec}, ""

	case page == TransactionSuccess, page == TicketDisplay:
		if cur.record == nil {
			return state{}, string(page) + " requires a transaction record"
		}
		return cur, ""
	}

	return state{}, "unknown page " + string(page)
}

// Navigate performs a direct transition. A target whose required context is
// missing lands on its fallback page instead, so no page is ever entered
// with nil context. Any pending confirmation is discarded.
func (c *Controller) Navigate(page Page, p Payload) Result {
	c.pending = nil
	from := c.current

	res := Result{Requested: page, Page: page}
	target := page
	next, reason := c.resolve(target, p)
	for reason != "" {
		if !res.Fallback {
			res.Reason = reason
		}
		res.Fallback = true
		target = fallbackFor(target)
		next, reason = c.resolve(target, Payload{})
	}
	res.Page = target

	c.current = target
	c.event, c.checkout, c.record = next.event, next.checkout, next.record

	if c.observer != nil {
		c.observer(Transition{From: from, Result: res})
	}
	return res
}

// RequestNavigationWithConfirmation stores page as the pending target and
// returns the prompt to show. onConfirmed, when non-nil, runs right before
// the transition on the final confirmation.
func (c *Controller) RequestNavigationWithConfirmation(page Page, p Payload, onConfirmed func(), opts ...RequestOption) (Prompt, error) {
	if c.pending != nil {
		return Prompt{}, ErrConfirmationPending
	}
	pd := &pending{target: page, payload: p, onConfirmed: onConfirmed, step: 1, steps: 1}
	for _, opt := range opts {
		opt(pd)
	}
	c.pending = pd
	return c.prompt(), nil
}

// Pending returns the prompt of the pending target, if any.
func (c *Controller) Pending() (Prompt, bool) {
	if c.pending == nil {
		return Prompt{}, false
	}
	return c.prompt(), true
}

// Confirm advances the pending confirmation. When further steps remain it
// returns done=false and the next prompt can be read with Pending. On the
// last step it runs the reset callback and navigates.
func (c *Controller) Confirm() (res Result, done bool, err error) {
	pd := c.pending
	if pd == nil {
		return Result{}, false, ErrNoPendingNavigation
	}
	if pd.step < pd.steps {
		pd.step++
		return Result{Requested: pd.target, Page: c.current}, false, nil
	}
	c.pending = nil
	if pd.onConfirmed != nil {
		pd.onConfirmed()
	}
	return c.Navigate(pd.target, pd.payload), true, nil
}

// Cancel discards the pending target and leaves the current page as is.
func (c *Controller) Cancel() error {
	if c.pending == nil {
		return ErrNoPendingNavigation
	}
	c.pending = nil
	return nil
}

// View returns a snapshot of the controller state.
func (c *Controller) View() View {
	v := View{Page: c.current, Event: c.event, Checkout: c.checkout, Transaction: c.record}
	if pr, ok := c.Pending(); ok {
		v.Prompt = &pr
	}
	return v
}

func (c *Controller) prompt() Prompt {
	return promptFor(c.current, c.pending.target, c.pending.step, c.pending.steps)
}
