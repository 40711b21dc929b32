package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/export"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/navigation"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/repository"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/service"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/transaction"
	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixedIDs struct{}

func (fixedIDs) Next() (transaction.IDs, error) {
	return transaction.IDs{TransactionID: "TRX-20241128083000-0A1B2C3D4E", OrderID: "ORD-0A1B2C3D4E", Code: "0A1B2C3D4E"}, nil
}

type errorBody struct {
	Error        string         `json:"error"`
	Fields       []string       `json:"fields"`
	TicketIndex  *int           `json:"ticket_index"`
	TicketNumber string         `json:"ticket_number"`
	State        *service.State `json:"state"`
}

// failingEncoder refuses to encode one QR payload.
type failingEncoder struct {
	failOn string
}

func (f failingEncoder) Matrix(content string) ([][]bool, error) {
	if content == f.failOn {
		return nil, errors.New("encoder exploded")
	}
	return export.QREncoder{Level: qrcode.Medium}.Matrix(content)
}

func newServer(t *testing.T, opts ...export.Option) *httptest.Server {
	t.Helper()
	catalog, err := repository.NewMemoryCatalog(repository.SampleEvents())
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	svc := service.NewStorefront(catalog, log, service.Options{
		IDs:    fixedIDs{},
		Export: append([]export.Option{export.WithCompression(false)}, opts...),
	})
	srv := httptest.NewServer(NewRouter(svc, log, "http://localhost:3000"))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// step performs a session operation that must succeed and returns the state.
func step(t *testing.T, srv *httptest.Server, method, path string, body any) service.State {
	t.Helper()
	resp := call(t, srv, method, path, body)
	require.Equal(t, http.StatusOK, resp.StatusCode, "%s %s", method, path)
	return decode[service.State](t, resp)
}

func openSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	st := decode[service.State](t, resp)
	require.NotEmpty(t, st.SessionID)
	assert.Equal(t, navigation.Landing, st.Page)
	return "/sessions/" + st.SessionID
}

func toCheckout(t *testing.T, srv *httptest.Server, base string) {
	t.Helper()
	step(t, srv, http.MethodPost, base+"/event", map[string]string{"event_id": "seminar-keamanan-siber-nasional"})
	step(t, srv, http.MethodPut, base+"/selection/government", map[string]int{"quantity": 2})
	st := step(t, srv, http.MethodPost, base+"/checkout", nil)
	require.Equal(t, navigation.Checkout, st.Page)
}

func TestHealthCheck(t *testing.T) {
	srv := newServer(t)
	resp := call(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestEvents(t *testing.T) {
	srv := newServer(t)

	resp := call(t, srv, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decode[[]model.Event](t, resp)
	assert.Len(t, events, 5)

	resp = call(t, srv, http.MethodGet, "/events/teater-klasik-hamlet", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	event := decode[model.Event](t, resp)
	assert.Len(t, event.Categories, 3)

	resp = call(t, srv, http.MethodGet, "/events/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// toTickets completes a two-ticket purchase and opens the ticket page.
func toTickets(t *testing.T, srv *httptest.Server, base string) {
	t.Helper()
	toCheckout(t, srv, base)

	for field, value := range map[string]string{
		"full_name":     "Rina Kusuma",
		"email":         "rina@example.com",
		"gender":        "Perempuan",
		"date_of_birth": "1992-03-14",
	} {
		step(t, srv, http.MethodPatch, base+"/buyer", map[string]string{"field": field, "value": value})
	}
	step(t, srv, http.MethodPut, base+"/phone", map[string]string{"country_code": "+62", "local_number": "8123456789"})
	step(t, srv, http.MethodPost, base+"/holders/0/sync", nil)
	step(t, srv, http.MethodPatch, base+"/holders/1", map[string]string{"field": "full_name", "value": "Agus Salim"})
	step(t, srv, http.MethodPatch, base+"/holders/1", map[string]string{"field": "contact", "value": "+62813000111"})

	st := step(t, srv, http.MethodPost, base+"/coupon", map[string]string{"code": "DISKON10"})
	require.NotNil(t, st.Form)
	assert.Equal(t, "450000", st.Form.EffectivePrice.String())

	st = step(t, srv, http.MethodPost, base+"/payment", nil)
	assert.Equal(t, navigation.PaymentLoading, st.Page)
	require.NotNil(t, st.Transaction)
	assert.Equal(t, "ORD-0A1B2C3D4E", st.Transaction.OrderID)

	st = step(t, srv, http.MethodPost, base+"/payment/complete", nil)
	assert.Equal(t, navigation.TransactionSuccess, st.Page)

	st = step(t, srv, http.MethodPost, base+"/tickets", nil)
	assert.Equal(t, navigation.TicketDisplay, st.Page)
}

func TestPurchaseOverHTTP(t *testing.T) {
	srv := newServer(t)
	base := openSession(t, srv)
	toTickets(t, srv, base)

	resp := call(t, srv, http.MethodGet, base+"/tickets.pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Hegra-Tickets-ORD-0A1B2C3D4E.pdf"`, resp.Header.Get("Content-Disposition"))
	var pdf bytes.Buffer
	_, err := pdf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF-")))

	resp = call(t, srv, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = call(t, srv, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadTicketsReportsFailingTicket(t *testing.T) {
	srv := newServer(t, export.WithCodeEncoder(failingEncoder{failOn: "TICKET-0A1B2C3D4E-002"}))
	base := openSession(t, srv)
	toTickets(t, srv, base)

	resp := call(t, srv, http.MethodGet, base+"/tickets.pdf", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	body := decode[errorBody](t, resp)
	require.NotNil(t, body.TicketIndex)
	assert.Equal(t, 1, *body.TicketIndex)
	assert.Equal(t, "TICKET-0A1B2C3D4E-002", body.TicketNumber)
	assert.Contains(t, body.Error, "render ticket 2")

	st := step(t, srv, http.MethodGet, base, nil)
	assert.Equal(t, export.Idle, st.Export)
}

func TestSubmitReportsMissingFields(t *testing.T) {
	srv := newServer(t)
	base := openSession(t, srv)
	toCheckout(t, srv, base)

	resp := call(t, srv, http.MethodPost, base+"/payment", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.NotEmpty(t, body.Fields)
	require.NotNil(t, body.State)
	assert.Equal(t, navigation.Checkout, body.State.Page)
}

func TestNavigationConfirmation(t *testing.T) {
	srv := newServer(t)
	base := openSession(t, srv)
	step(t, srv, http.MethodPost, base+"/event", map[string]string{"event_id": "seminar-keamanan-siber-nasional"})
	step(t, srv, http.MethodPut, base+"/selection/public", map[string]int{"quantity": 1})

	st := step(t, srv, http.MethodPost, base+"/navigate", map[string]string{"page": "events"})
	assert.Equal(t, navigation.EventDetail, st.Page)
	require.NotNil(t, st.Prompt)

	resp := call(t, srv, http.MethodPut, base+"/selection/public", map[string]int{"quantity": 2})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	st = step(t, srv, http.MethodPost, base+"/navigate/confirm", nil)
	assert.Equal(t, navigation.Events, st.Page)
	assert.Nil(t, st.Prompt)

	resp = call(t, srv, http.MethodPost, base+"/navigate/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRequestErrors(t *testing.T) {
	srv := newServer(t)
	base := openSession(t, srv)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown session", http.MethodGet, "/sessions/missing", nil, http.StatusNotFound},
		{"unknown page", http.MethodPost, base + "/navigate", map[string]string{"page": "cart"}, http.StatusBadRequest},
		{"unknown body field", http.MethodPost, base + "/navigate", map[string]string{"pg": "events"}, http.StatusBadRequest},
		{"payment is not a direct target", http.MethodPost, base + "/navigate", map[string]string{"page": "paymentLoading"}, http.StatusConflict},
		{"checkout without selection", http.MethodPost, base + "/checkout", nil, http.StatusConflict},
		{"unknown event", http.MethodPost, base + "/event", map[string]string{"event_id": "nope"}, http.StatusNotFound},
		{"bad holder index", http.MethodPost, base + "/holders/x/sync", nil, http.StatusBadRequest},
		{"tickets before payment", http.MethodGet, base + "/tickets.pdf", nil, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			body := decode[errorBody](t, resp)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSoldOutCategory(t *testing.T) {
	srv := newServer(t)
	base := openSession(t, srv)
	step(t, srv, http.MethodPost, base+"/event", map[string]string{"event_id": "teater-klasik-hamlet"})

	resp := call(t, srv, http.MethodPut, base+"/selection/vip", map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t)
	resp := call(t, srv, http.MethodOptions, "/sessions", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Expose-Headers"), "Content-Disposition"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&model.ValidationError{Fields: []string{"email"}}))
	assert.Equal(t, http.StatusConflict, statusFor(export.ErrExportInProgress))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&export.RenderError{Index: 0, Err: assert.AnError}))
}
