package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/checkout"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/export"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/navigation"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/repository"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/selection"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const seminar = "seminar-keamanan-siber-nasional"

type recordingNotifier struct {
	mu     sync.Mutex
	orders []string
}

func (n *recordingNotifier) TicketsIssued(_ context.Context, rec *model.TransactionRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, rec.OrderID)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

type fixedIDs struct{}

func (fixedIDs) Next() (transaction.IDs, error) {
	return transaction.IDs{TransactionID: "TRX-20241128083000-ABCDEF1234", OrderID: "ORD-ABCDEF1234", Code: "ABCDEF1234"}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStorefront(t *testing.T, opts Options) *Storefront {
	t.Helper()
	catalog, err := repository.NewMemoryCatalog(repository.SampleEvents())
	require.NoError(t, err)
	if opts.IDs == nil {
		opts.IDs = fixedIDs{}
	}
	opts.Export = append(opts.Export, export.WithCompression(false))
	return NewStorefront(catalog, zaptest.NewLogger(t), opts)
}

// atCheckout walks a fresh session to checkout with two government tickets.
func atCheckout(t *testing.T, s *Storefront) string {
	t.Helper()
	id := s.CreateSession().SessionID
	_, err := s.OpenEvent(context.Background(), id, seminar)
	require.NoError(t, err)
	_, err = s.SetQuantity(id, "government", 2)
	require.NoError(t, err)
	st, err := s.ProceedToCheckout(id)
	require.NoError(t, err)
	require.Equal(t, navigation.Checkout, st.Page)
	return id
}

func fillForm(t *testing.T, s *Storefront, id string) {
	t.Helper()
	for field, value := range map[checkout.BuyerField]string{
		checkout.FullName:    "Rina Kusuma",
		checkout.Email:       "rina@example.com",
		checkout.Gender:      "Perempuan",
		checkout.DateOfBirth: "1992-03-14",
	} {
		_, err := s.UpdateBuyer(id, field, value)
		require.NoError(t, err)
	}
	_, err := s.SetPhone(id, "+62", "0812-3456-789")
	require.NoError(t, err)
	_, err = s.ToggleHolderSync(id, 0)
	require.NoError(t, err)
	_, err = s.UpdateHolder(id, 1, checkout.HolderName, "Agus Salim")
	require.NoError(t, err)
	_, err = s.UpdateHolder(id, 1, checkout.HolderContact, "+62813000111")
	require.NoError(t, err)
}

func TestStorefront_FullPurchase(t *testing.T) {
	notes := &recordingNotifier{}
	s := newStorefront(t, Options{Notifier: notes})
	id := atCheckout(t, s)
	fillForm(t, s, id)

	st, err := s.ApplyCoupon(id, "diskon10")
	require.NoError(t, err)
	require.NotNil(t, st.Form)
	assert.True(t, st.Form.OriginalPrice.Equal(decimal.NewFromInt(500000)))
	assert.True(t, st.Form.EffectivePrice.Equal(decimal.NewFromInt(450000)))
	assert.Equal(t, "Rp 450.000", st.Form.PriceDisplay)
	assert.Equal(t, "Rina Kusuma", st.Form.Holders[0].FullName)
	assert.Equal(t, "+6208123456789", st.Form.Holders[0].Contact)

	st, err = s.Submit(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.PaymentLoading, st.Page)
	require.NotNil(t, st.Transaction)
	assert.Equal(t, "ORD-ABCDEF1234", st.Transaction.OrderID)
	assert.True(t, st.Transaction.Checkout.TotalPrice.Equal(decimal.NewFromInt(450000)))
	require.Len(t, st.Transaction.Tickets, 2)
	assert.Equal(t, "Agus Salim", st.Transaction.Tickets[1].HolderName)

	st, err = s.CompletePayment(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.TransactionSuccess, st.Page)
	assert.Equal(t, 1, notes.count())

	st, err = s.ViewTickets(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.TicketDisplay, st.Page)

	doc, err := s.ExportTickets(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Hegra-Tickets-ORD-ABCDEF1234.pdf", doc.Name)
	assert.Equal(t, 2, doc.Pages)
	assert.Contains(t, string(doc.Data), "TICKET-ABCDEF1234-002")

	st, err = s.State(id)
	require.NoError(t, err)
	assert.Equal(t, export.Done, st.Export)
}

func TestStorefront_LeavingSelectionNeedsConfirmation(t *testing.T) {
	s := newStorefront(t, Options{})
	id := s.CreateSession().SessionID
	_, err := s.OpenEvent(context.Background(), id, seminar)
	require.NoError(t, err)
	_, err = s.SetQuantity(id, "public", 1)
	require.NoError(t, err)

	st, err := s.Navigate(id, navigation.Events)
	require.NoError(t, err)
	assert.Equal(t, navigation.EventDetail, st.Page)
	require.NotNil(t, st.Prompt)
	assert.Equal(t, navigation.Events, st.Prompt.Target)

	_, err = s.SetQuantity(id, "public", 2)
	assert.ErrorIs(t, err, navigation.ErrConfirmationPending, "edits blocked while prompt is open")

	st, err = s.CancelNavigation(id)
	require.NoError(t, err)
	assert.Nil(t, st.Prompt)
	require.NotNil(t, st.Selection)
	assert.Equal(t, 1, st.Selection.TotalQuantity)
	assert.Equal(t, "Rp 500.000", st.Selection.TotalDisplay)

	_, err = s.Navigate(id, navigation.Events)
	require.NoError(t, err)
	st, err = s.ConfirmNavigation(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.Events, st.Page)

	st, err = s.OpenEvent(context.Background(), id, seminar)
	require.NoError(t, err)
	require.NotNil(t, st.Selection)
	assert.Zero(t, st.Selection.TotalQuantity)
}

func TestStorefront_SwitchingEventResetsSelection(t *testing.T) {
	s := newStorefront(t, Options{})
	id := s.CreateSession().SessionID
	_, err := s.OpenEvent(context.Background(), id, seminar)
	require.NoError(t, err)
	_, err = s.SetQuantity(id, "public", 3)
	require.NoError(t, err)

	st, err := s.OpenEvent(context.Background(), id, "teater-klasik-hamlet")
	require.NoError(t, err)
	require.NotNil(t, st.Prompt)

	st, err = s.ConfirmNavigation(id)
	require.NoError(t, err)
	assert.Equal(t, "teater-klasik-hamlet", st.Event.ID)
	assert.Zero(t, st.Selection.TotalQuantity)
}

func TestStorefront_DirtyCheckoutNeedsTwoConfirmations(t *testing.T) {
	s := newStorefront(t, Options{})
	id := atCheckout(t, s)
	_, err := s.UpdateBuyer(id, checkout.FullName, "Rina")
	require.NoError(t, err)

	st, err := s.Navigate(id, navigation.EventDetail)
	require.NoError(t, err)
	require.NotNil(t, st.Prompt)
	assert.Equal(t, 1, st.Prompt.Step)
	assert.Equal(t, 2, st.Prompt.Steps)

	st, err = s.ConfirmNavigation(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.Checkout, st.Page)
	require.NotNil(t, st.Prompt)
	assert.Equal(t, 2, st.Prompt.Step)

	st, err = s.ConfirmNavigation(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.EventDetail, st.Page)
	assert.Nil(t, st.Form)
	assert.Equal(t, seminar, st.Event.ID)
	require.NotNil(t, st.Selection)
	assert.Zero(t, st.Selection.TotalQuantity)
	assert.Empty(t, st.Selection.Lines)
}

func TestStorefront_CancelKeepsDirtyForm(t *testing.T) {
	s := newStorefront(t, Options{})
	id := atCheckout(t, s)
	_, err := s.UpdateBuyer(id, checkout.Email, "rina@example.com")
	require.NoError(t, err)

	_, err = s.Navigate(id, navigation.Landing)
	require.NoError(t, err)
	_, err = s.Navigate(id, navigation.Help)
	assert.ErrorIs(t, err, navigation.ErrConfirmationPending)

	st, err := s.CancelNavigation(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.Checkout, st.Page)
	require.NotNil(t, st.Form)
	assert.Equal(t, "rina@example.com", st.Form.Buyer.Email)
	assert.True(t, st.Form.Dirty)
}

func TestStorefront_CleanCheckoutLeavesDirectly(t *testing.T) {
	s := newStorefront(t, Options{})
	id := atCheckout(t, s)

	st, err := s.Navigate(id, navigation.EventDetail)
	require.NoError(t, err)
	assert.Nil(t, st.Prompt)
	assert.Equal(t, navigation.EventDetail, st.Page)
	require.NotNil(t, st.Selection)
	assert.Zero(t, st.Selection.TotalQuantity)

	_, err = s.ProceedToCheckout(id)
	assert.ErrorIs(t, err, selection.ErrEmptySelection)
}

func TestStorefront_SubmitRejectsIncompleteForm(t *testing.T) {
	s := newStorefront(t, Options{})
	id := atCheckout(t, s)

	st, err := s.Submit(id)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Equal(t, navigation.Checkout, st.Page)
	assert.Nil(t, st.Transaction)
}

func TestStorefront_WrongPage(t *testing.T) {
	s := newStorefront(t, Options{})
	id := s.CreateSession().SessionID

	_, err := s.Navigate(id, navigation.Checkout)
	assert.ErrorIs(t, err, ErrWrongPage)
	_, err = s.Navigate(id, navigation.PaymentLoading)
	assert.ErrorIs(t, err, ErrWrongPage)
	_, err = s.SetQuantity(id, "public", 1)
	assert.ErrorIs(t, err, ErrWrongPage)
	_, err = s.ExportTickets(context.Background(), id)
	assert.ErrorIs(t, err, ErrWrongPage)

	st, err := s.Navigate(id, navigation.TicketDisplay)
	require.NoError(t, err)
	assert.Equal(t, navigation.Landing, st.Page, "ticket display without a record falls back")
}

func TestStorefront_EmptySelectionCannotCheckout(t *testing.T) {
	s := newStorefront(t, Options{})
	id := s.CreateSession().SessionID
	_, err := s.OpenEvent(context.Background(), id, seminar)
	require.NoError(t, err)

	_, err = s.ProceedToCheckout(id)
	assert.ErrorIs(t, err, selection.ErrEmptySelection)
}

func TestStorefront_LeavingPaymentNeedsConfirmation(t *testing.T) {
	s := newStorefront(t, Options{})
	id := atCheckout(t, s)
	fillForm(t, s, id)
	_, err := s.Submit(id)
	require.NoError(t, err)

	st, err := s.Navigate(id, navigation.Checkout)
	require.NoError(t, err)
	require.NotNil(t, st.Prompt)
	assert.Equal(t, "Batalkan Pembayaran?", st.Prompt.Title)

	st, err = s.ConfirmNavigation(id)
	require.NoError(t, err)
	assert.Equal(t, navigation.Checkout, st.Page)
	assert.Nil(t, st.Transaction)
	require.NotNil(t, st.Form)
	assert.Equal(t, "Rina Kusuma", st.Form.Buyer.FullName)
	assert.True(t, st.Form.OriginalPrice.Equal(decimal.NewFromInt(500000)))

	_, err = s.CompletePayment(id)
	assert.ErrorIs(t, err, ErrWrongPage)
}

func TestStorefront_PaymentCompletesAfterDelay(t *testing.T) {
	notes := &recordingNotifier{}
	s := newStorefront(t, Options{PaymentDelay: 10 * time.Millisecond, Notifier: notes})
	id := atCheckout(t, s)
	fillForm(t, s, id)
	_, err := s.Submit(id)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		st, err := s.State(id)
		return err == nil && st.Page == navigation.TransactionSuccess
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, notes.count())
}

func TestStorefront_SweepExpiresIdleSessions(t *testing.T) {
	c := &clock{now: time.Date(2024, 11, 28, 8, 0, 0, 0, time.UTC)}
	s := newStorefront(t, Options{SessionTTL: 10 * time.Minute, Now: c.Now})

	idle := s.CreateSession().SessionID
	c.Advance(6 * time.Minute)
	active := s.CreateSession().SessionID
	c.Advance(6 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	_, err := s.State(idle)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.State(active)
	assert.NoError(t, err)
	assert.Equal(t, 1, s.SessionCount())
}

func TestStorefront_CloseSession(t *testing.T) {
	s := newStorefront(t, Options{})
	id := s.CreateSession().SessionID

	require.NoError(t, s.CloseSession(id))
	assert.ErrorIs(t, s.CloseSession(id), ErrSessionNotFound)
	_, err := s.OpenEvent(context.Background(), id, seminar)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStorefront_UnknownEvent(t *testing.T) {
	s := newStorefront(t, Options{})
	id := s.CreateSession().SessionID

	_, err := s.OpenEvent(context.Background(), id, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStorefront_MissingPosterIsLogged(t *testing.T) {
	events := repository.SampleEvents()
	for i := range events {
		if events[i].ID == seminar {
			events[i].PosterPath = "/nonexistent/seminar-poster.jpg"
		}
	}
	catalog, err := repository.NewMemoryCatalog(events)
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewStorefront(catalog, zap.New(core), Options{
		IDs:    fixedIDs{},
		Export: []export.Option{export.WithCompression(false)},
	})

	id := atCheckout(t, s)
	fillForm(t, s, id)
	_, err = s.Submit(id)
	require.NoError(t, err)
	_, err = s.CompletePayment(id)
	require.NoError(t, err)
	_, err = s.ViewTickets(id)
	require.NoError(t, err)

	doc, err := s.ExportTickets(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages)

	warned := logs.FilterMessage("poster unavailable, using placeholder banner")
	require.NotZero(t, warned.Len())
	fields := warned.All()[0].ContextMap()
	assert.Equal(t, seminar, fields["event_id"])
	assert.Equal(t, "/nonexistent/seminar-poster.jpg", fields["poster"])
}
