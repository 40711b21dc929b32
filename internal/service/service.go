// Package service runs storefront sessions: one navigation controller per
// visitor plus the selection, checkout form and ticket export it drives.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/checkout"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/export"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/metrics"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/repository"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/transaction"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrWrongPage is returned when an operation does not apply to the
	// session's current page.
	ErrWrongPage = errors.New("operation not available on current page")
	// ErrPaymentAbandoned is returned when the visitor left the payment page
	// before it completed.
	ErrPaymentAbandoned = errors.New("payment was abandoned")
)

// Options configures a Storefront.
type Options struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
	// PaymentDelay is how long the simulated payment takes. Zero disables the
	// automatic completion; CompletePayment must then be called.
	PaymentDelay time.Duration
	Coupons      checkout.CouponPolicy
	IDs          transaction.IDGenerator
	Notifier     Notifier
	Export       []export.Option
	Now          func() time.Time
}

// Storefront owns every live session.
type Storefront struct {
	catalog   repository.Catalog
	log       *zap.Logger
	opts      Options
	assembler *transaction.Assembler

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStorefront constructs a Storefront with its dependencies.
func NewStorefront(catalog repository.Catalog, log *zap.Logger, opts Options) *Storefront {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.Coupons == nil {
		opts.Coupons = checkout.DefaultCoupon
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Log: log}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Storefront{
		catalog:   catalog,
		log:       log,
		opts:      opts,
		assembler: transaction.NewAssembler(opts.IDs),
		sessions:  make(map[string]*Session),
	}
}

// Catalog exposes the event catalog for read-only browsing.
func (s *Storefront) Catalog() repository.Catalog { return s.catalog }

// ListEvents returns all events.
func (s *Storefront) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetEvent returns a single event by ID.
func (s *Storefront) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	event, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// CreateSession starts a new session on the landing page.
func (s *Storefront) CreateSession() State {
	sess := s.newSession(uuid.NewString())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	metrics.SessionOpened()
	s.log.Debug("session opened", zap.String("session_id", sess.id))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state()
}

// CloseSession discards a session and stops any work it has in flight.
func (s *Storefront) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.shutdown(sess, false)
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Storefront) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Storefront) shutdown(sess *Session, expired bool) {
	sess.mu.Lock()
	sess.stopPayment()
	sess.cancelRunningExport()
	sess.mu.Unlock()
	metrics.SessionClosed(expired)
}

// lookup returns the session and refreshes its idle timer.
func (s *Storefront) lookup(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.opts.Now()
	return sess, nil
}

// do runs fn with the session locked and returns the resulting state.
func (s *Storefront) do(id string, fn func(*Session) error) (State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	err = fn(sess)
	return sess.state(), err
}

// Run sweeps idle sessions until ctx is done.
func (s *Storefront) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Sweep removes sessions idle for longer than the TTL and reports how many
// were removed.
func (s *Storefront) Sweep() int {
	cutoff := s.opts.Now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	var stale []*Session
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		s.shutdown(sess, true)
	}
	return len(stale)
}
