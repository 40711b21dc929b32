// Package selection tracks how many tickets of each category a visitor has
// picked on an event detail page.
package selection

import (
	"errors"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCategory is returned for a category id the event does not have.
	ErrUnknownCategory = errors.New("unknown ticket category")
	// ErrSoldOut is returned when an increase targets a sold-out category.
	// The selection is left unchanged.
	ErrSoldOut = errors.New("ticket category is sold out")
	// ErrEmptySelection is returned when checking out with no tickets picked.
	ErrEmptySelection = errors.New("no tickets selected")
	// ErrNoEvent is returned when the model is not bound to an event.
	ErrNoEvent = errors.New("no event bound to selection")
)

// Model maps category id to chosen quantity for a single event.
type Model struct {
	event      *model.Event
	quantities map[string]int
}

// New returns a selection bound to event. A nil event yields an unbound model.
func New(event *model.Event) *Model {
	m := &Model{quantities: make(map[string]int)}
	m.Bind(event)
	return m
}

// Bind switches the active event. Quantities are discarded whenever the
// event identity changes, so nothing carries over between events.
func (m *Model) Bind(event *model.Event) {
	if m.event != nil && event != nil && m.event.ID == event.ID {
		m.event = event
		return
	}
	m.event = event
	m.Reset()
}

// Event returns the bound event or nil.
func (m *Model) Event() *model.Event {
	return m.event
}

// Reset clears every quantity.
func (m *Model) Reset() {
	m.quantities = make(map[string]int)
}

// SetQuantity sets the quantity for a category. Negative values clamp to 0
// and values above the category's max quantity clamp to the max.
func (m *Model) SetQuantity(categoryID string, qty int) error {
	if m.event == nil {
		return ErrNoEvent
	}
	cat, ok := m.event.Category(categoryID)
	if !ok {
		return ErrUnknownCategory
	}
	if qty < 0 {
		qty = 0
	}
	if cat.MaxQuantity != nil && qty > *cat.MaxQuantity {
		qty = *cat.MaxQuantity
	}
	if cat.IsSoldOut() && qty > m.quantities[categoryID] {
		return ErrSoldOut
	}
	if qty == 0 {
		delete(m.quantities, categoryID)
		return nil
	}
	m.quantities[categoryID] = qty
	return nil
}

// Increment adds one ticket of the category.
func (m *Model) Increment(categoryID string) error {
	return m.SetQuantity(categoryID, m.Quantity(categoryID)+1)
}

// Decrement removes one ticket of the category, never going below zero.
func (m *Model) Decrement(categoryID string) error {
	return m.SetQuantity(categoryID, m.Quantity(categoryID)-1)
}

// Quantity returns the chosen quantity for a category.
func (m *Model) Quantity(categoryID string) int {
	return m.quantities[categoryID]
}

// TotalQuantity is the sum of all quantities.
func (m *Model) TotalQuantity() int {
	n := 0
	for _, q := range m.quantities {
		n += q
	}
	return n
}

// TotalPrice is the sum of quantity × unit price over all categories.
func (m *Model) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	if m.event == nil {
		return total
	}
	for _, c := range m.event.Categories {
		if q := m.quantities[c.ID]; q > 0 {
			total = total.Add(c.Price.Mul(decimal.NewFromInt(int64(q))))
		}
	}
	return total
}

// IsEmpty reports whether no ticket has been picked.
func (m *Model) IsEmpty() bool {
	return m.TotalQuantity() == 0
}

// Lines returns the selected categories in the event's category order.
func (m *Model) Lines() []model.SelectedTicket {
	if m.event == nil {
		return nil
	}
	var lines []model.SelectedTicket
	for _, c := range m.event.Categories {
		q := m.quantities[c.ID]
		if q <= 0 {
			continue
		}
		lines = append(lines, model.SelectedTicket{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Quantity:     q,
			UnitPrice:    c.Price,
		})
	}
	return lines
}

// Checkout freezes the selection into a CheckoutInfo snapshot.
func (m *Model) Checkout() (model.CheckoutInfo, error) {
	if m.event == nil {
		return model.CheckoutInfo{}, ErrNoEvent
	}
	lines := m.Lines()
	if len(lines) == 0 {
		return model.CheckoutInfo{}, ErrEmptySelection
	}
	return model.NewCheckoutInfo(*m.event, lines, m.TotalPrice()), nil
}
