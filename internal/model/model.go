// Package model defines the core domain types for the ticket storefront.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability describes how much stock a ticket category has left.
type Availability string

const (
	Available  Availability = "available"
	AlmostSold Availability = "almost-sold"
	SoldOut    Availability = "sold-out"
)

// TicketCategory is a purchasable tier within an event (Regular, VIP, ...).
type TicketCategory struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description,omitempty"`
	MaxQuantity  *int            `json:"max_quantity,omitempty"`
	Availability Availability    `json:"availability_status,omitempty"`
}

// IsSoldOut reports whether the category can no longer be increased.
func (c TicketCategory) IsSoldOut() bool {
	return c.Availability == SoldOut
}

// Event is an immutable catalog entry.
type Event struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Location      string           `json:"location"`
	DateDisplay   string           `json:"date_display"`
	TimeDisplay   string           `json:"time_display"`
	PosterPath    string           `json:"poster_path,omitempty"`
	OrganizerName string           `json:"organizer_name,omitempty"`
	Categories    []TicketCategory `json:"ticket_categories"`
}

// Category looks a ticket category up by id.
func (e *Event) Category(id string) (TicketCategory, bool) {
	for _, c := range e.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return TicketCategory{}, false
}

// Validate checks the catalog invariants of an event.
func (e *Event) Validate() error {
	if e.ID == "" {
		return &InvalidEventError{EventID: e.ID, Reason: "missing id"}
	}
	seen := make(map[string]struct{}, len(e.Categories))
	for _, c := range e.Categories {
		if c.ID == "" {
			return &InvalidEventError{EventID: e.ID, Reason: "category without id"}
		}
		if _, dup := seen[c.ID]; dup {
			return &InvalidEventError{EventID: e.ID, Reason: "duplicate category id " + c.ID}
		}
		if c.Price.IsNegative() {
			return &InvalidEventError{EventID: e.ID, Reason: "negative price for category " + c.ID}
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// SelectedTicket is one category line of a checkout.
type SelectedTicket struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"price_per_ticket"`
}

// Subtotal is quantity × unit price.
func (s SelectedTicket) Subtotal() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// CheckoutInfo is a frozen snapshot of a finalised ticket selection.
// It is never mutated; WithTotal returns an adjusted copy.
type CheckoutInfo struct {
	Event      Event            `json:"event"`
	Tickets    []SelectedTicket `json:"selected_tickets"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

// NewCheckoutInfo copies tickets so the snapshot does not alias caller state.
func NewCheckoutInfo(event Event, tickets []SelectedTicket, total decimal.Decimal) CheckoutInfo {
	return CheckoutInfo{
		Event:      event,
		Tickets:    append([]SelectedTicket(nil), tickets...),
		TotalPrice: total,
	}
}

// TotalQuantity sums the quantities of every line.
func (c CheckoutInfo) TotalQuantity() int {
	n := 0
	for _, t := range c.Tickets {
		n += t.Quantity
	}
	return n
}

// WithTotal returns a copy of the checkout carrying a different total.
func (c CheckoutInfo) WithTotal(total decimal.Decimal) CheckoutInfo {
	return NewCheckoutInfo(c.Event, c.Tickets, total)
}

// BuyerRecord holds the orderer's personal data.
type BuyerRecord struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone_number"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
}

// TicketHolderRecord is the attendee data for one individual ticket.
type TicketHolderRecord struct {
	FullName      string `json:"full_name"`
	Contact       string `json:"contact"`
	SyncedToBuyer bool   `json:"synced_to_buyer"`
}

// IsBlank reports whether neither name nor contact has been entered.
func (h TicketHolderRecord) IsBlank() bool {
	return h.FullName == "" && h.Contact == ""
}

// Submission is the validated output of a completed checkout form.
type Submission struct {
	Checkout CheckoutInfo         `json:"checkout"`
	Buyer    BuyerRecord          `json:"buyer"`
	Holders  []TicketHolderRecord `json:"holders"`
}

// IssuedTicket is one flattened, numbered ticket of a transaction.
type IssuedTicket struct {
	Sequence      int    `json:"sequence"`
	TicketNumber  string `json:"ticket_number"`
	CategoryID    string `json:"category_id"`
	CategoryName  string `json:"category_name"`
	HolderName    string `json:"holder_name"`
	HolderContact string `json:"holder_contact"`
}

// TransactionRecord is created once per successful submission and is
// read-only afterwards.
type TransactionRecord struct {
	TransactionID string         `json:"transaction_id"`
	OrderID       string         `json:"order_id"`
	Checkout      CheckoutInfo   `json:"checkout"`
	Buyer         BuyerRecord    `json:"buyer"`
	Tickets       []IssuedTicket `json:"tickets"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TicketCount returns the number of issued tickets.
func (t *TransactionRecord) TicketCount() int {
	return len(t.Tickets)
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}
