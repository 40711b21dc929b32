package transaction

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrIDSpaceExhausted is returned when no unused order code could be drawn.
var ErrIDSpaceExhausted = errors.New("could not generate a unique order id")

// IDs is one generated id pair. Code is the order id without its prefix and
// is what ticket numbers are derived from.
type IDs struct {
	TransactionID string
	OrderID       string
	Code          string
}

// IDGenerator produces identifiers for a new transaction.
type IDGenerator interface {
	Next() (IDs, error)
}

// UUIDGenerator derives order codes from random UUIDs and remembers every
// code it handed out, so codes are unique for the lifetime of the process.
type UUIDGenerator struct {
	mu      sync.Mutex
	issued  map[string]struct{}
	now     func() time.Time
	newUUID func() uuid.UUID
}

// NewUUIDGenerator returns a generator using the wall clock.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{
		issued:  make(map[string]struct{}),
		now:     time.Now,
		newUUID: uuid.New,
	}
}

const (
	codeLength   = 10
	maxAttempts  = 8
	stampLayout  = "20060102150405"
	orderPrefix  = "ORD-"
	ticketPrefix = "TICKET-"
)

// Next implements IDGenerator.
func (g *UUIDGenerator) Next() (IDs, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		u := g.newUUID()
		code := strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))[:codeLength]
		if _, dup := g.issued[code]; dup {
			continue
		}
		g.issued[code] = struct{}{}
		return IDs{
			TransactionID: fmt.Sprintf("TRX-%s-%s", g.now().UTC().Format(stampLayout), code),
			OrderID:       orderPrefix + code,
			Code:          code,
		}, nil
	}
	return IDs{}, ErrIDSpaceExhausted
}

// TicketNumber formats the number of the seq-th (1-based) ticket of an order.
func TicketNumber(code string, seq int) string {
	return fmt.Sprintf("%s%s-%03d", ticketPrefix, code, seq)
}
