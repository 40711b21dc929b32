// Package transaction turns a completed checkout into the immutable
// transaction record that ticket display and export read from.
package transaction

import (
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
)

// Assembler builds transaction records.
type Assembler struct {
	ids IDGenerator
	now func() time.Time
}

// NewAssembler returns an assembler using ids for identifiers. A nil
// generator falls back to NewUUIDGenerator.
func NewAssembler(ids IDGenerator) *Assembler {
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	return &Assembler{ids: ids, now: time.Now}
}

// Assemble generates ids and flattens the submission into numbered tickets.
// A holder count that differs from the ticket count is a programming fault
// and panics with model.InvariantViolation.
func (a *Assembler) Assemble(sub model.Submission) (*model.TransactionRecord, error) {
	want := sub.Checkout.TotalQuantity()
	if len(sub.Holders) != want {
		panic(model.InvariantViolation{
			Invariant: "holder count equals ticket count",
			Detail:    fmt.Sprintf("%d holders for %d tickets", len(sub.Holders), want),
		})
	}

	ids, err := a.ids.Next()
	if err != nil {
		return nil, fmt.Errorf("generate transaction ids: %w", err)
	}

	return &model.TransactionRecord{
		TransactionID: ids.TransactionID,
		OrderID:       ids.OrderID,
		Checkout:      sub.Checkout.WithTotal(sub.Checkout.TotalPrice),
		Buyer:         sub.Buyer,
		Tickets:       Flatten(ids.Code, sub.Checkout.Tickets, sub.Holders),
		CreatedAt:     a.now().UTC(),
	}, nil
}

// Flatten expands category lines into one ticket per unit: lines in order,
// quantity tickets each. Ticket i is paired with holders[i]; missing holders
// yield "N/A".
func Flatten(code string, lines []model.SelectedTicket, holders []model.TicketHolderRecord) []model.IssuedTicket {
	var tickets []model.IssuedTicket
	seq := 0
	for _, line := range lines {
		for n := 0; n < line.Quantity; n++ {
			t := model.IssuedTicket{
				Sequence:      seq + 1,
				TicketNumber:  TicketNumber(code, seq+1),
				CategoryID:    line.CategoryID,
				CategoryName:  line.CategoryName,
				HolderName:    "N/A",
				HolderContact: "N/A",
			}
			if seq < len(holders) {
				t.HolderName = holders[seq].FullName
				t.HolderContact = holders[seq].Contact
			}
			tickets = append(tickets, t)
			seq++
		}
	}
	return tickets
}
