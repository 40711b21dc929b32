// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the storefront service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/checkout"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/export"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/navigation"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/selection"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StorefrontHandler holds all HTTP handlers for the storefront API.
type StorefrontHandler struct {
	svc *service.Storefront
	log *zap.Logger
}

// NewStorefrontHandler constructs a StorefrontHandler.
func NewStorefrontHandler(svc *service.Storefront, log *zap.Logger) *StorefrontHandler {
	return &StorefrontHandler{svc: svc, log: log}
}

// ─── Request bodies ───────────────────────────────────────────────────────────

type openEventRequest struct {
	EventID string `json:"event_id"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type phoneRequest struct {
	CountryCode string `json:"country_code"`
	LocalNumber string `json:"local_number"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type navigateRequest struct {
	Page string `json:"page"`
}

// sessionErrorResponse carries the session state alongside the error so
// clients can redraw without a second request.
type sessionErrorResponse struct {
	model.ErrorResponse
	TicketIndex  *int           `json:"ticket_index,omitempty"`
	TicketNumber string         `json:"ticket_number,omitempty"`
	State        *service.State `json:"state,omitempty"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound

	case errors.Is(err, model.ErrValidation),
		errors.Is(err, checkout.ErrCouponEmpty),
		errors.Is(err, checkout.ErrCouponInvalid),
		errors.Is(err, checkout.ErrUnknownField),
		errors.Is(err, checkout.ErrUnknownCountryCode),
		errors.Is(err, checkout.ErrHolderIndex),
		errors.Is(err, checkout.ErrHolderSynced),
		errors.Is(err, selection.ErrSoldOut),
		errors.Is(err, selection.ErrUnknownCategory),
		errors.Is(err, selection.ErrEmptySelection):
		return http.StatusUnprocessableEntity

	case errors.Is(err, navigation.ErrConfirmationPending),
		errors.Is(err, navigation.ErrNoPendingNavigation),
		errors.Is(err, service.ErrWrongPage),
		errors.Is(err, service.ErrPaymentAbandoned),
		errors.Is(err, export.ErrExportInProgress),
		errors.Is(err, context.Canceled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status. Server errors are
// logged and their detail is hidden from the client, except export failures,
// which name the ticket that could not be rendered.
func (h *StorefrontHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, st *service.State) {
	status := statusFor(err)
	body := sessionErrorResponse{ErrorResponse: model.ErrorResponse{Error: err.Error()}}

	var renderErr *export.RenderError
	switch {
	case status == http.StatusInternalServerError && errors.As(err, &renderErr):
		h.log.Error("ticket export failed", zap.String("path", r.URL.Path), zap.Error(err))
		index := renderErr.Index
		body.TicketIndex = &index
		body.TicketNumber = renderErr.TicketNumber
	case status >= http.StatusInternalServerError:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		body.Error = "internal server error"
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if st != nil && st.SessionID != "" {
		body.State = st
	}
	writeJSON(w, status, body)
}

// respond writes the state returned by a session operation, or its error.
func (h *StorefrontHandler) respond(w http.ResponseWriter, r *http.Request, st service.State, err error) {
	if err != nil {
		h.writeServiceError(w, r, err, &st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func holderIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, errors.New("holder index must be an integer")
	}
	return i, nil
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

// ListEvents handles GET /events
// Returns a JSON array of all events.
func (h *StorefrontHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, nil)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *StorefrontHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		h.writeServiceError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ─── Sessions ─────────────────────────────────────────────────────────────────

// CreateSession handles POST /sessions
// Starts a new session on the landing page.
func (h *StorefrontHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.svc.CreateSession())
}

// GetSession handles GET /sessions/{sid}
func (h *StorefrontHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.State(chi.URLParam(r, "sid"))
	h.respond(w, r, st, err)
}

// CloseSession handles DELETE /sessions/{sid}
func (h *StorefrontHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(chi.URLParam(r, "sid")); err != nil {
		h.writeServiceError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Navigation ───────────────────────────────────────────────────────────────

// Navigate handles POST /sessions/{sid}/navigate
// Moves to the requested page or opens a confirmation when leaving would
// discard work.
func (h *StorefrontHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	page, ok := navigation.ParsePage(req.Page)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown page "+strconv.Quote(req.Page))
		return
	}

	st, err := h.svc.Navigate(chi.URLParam(r, "sid"), page)
	h.respond(w, r, st, err)
}

// ConfirmNavigation handles POST /sessions/{sid}/navigate/confirm
func (h *StorefrontHandler) ConfirmNavigation(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.ConfirmNavigation(chi.URLParam(r, "sid"))
	h.respond(w, r, st, err)
}

// CancelNavigation handles POST /sessions/{sid}/navigate/cancel
func (h *StorefrontHandler) CancelNavigation(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.CancelNavigation(chi.URLParam(r, "sid"))
	h.respond(w, r, st, err)
}

// ─── Ticket selection ─────────────────────────────────────────────────────────

// OpenEvent handles POST /sessions/{sid}/event
func (h *StorefrontHandler) OpenEvent(w http.ResponseWriter, r *http.Request) {
	var req openEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.OpenEvent(r.Context(), chi.URLParam(r, "sid"), req.EventID)
	h.respond(w, r, st, err)
}

// SetQuantity handles PUT /sessions/{sid}/selection/{category}
func (h *StorefrontHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.SetQuantity(chi.URLParam(r, "sid"), chi.URLParam(r, "category"), req.Quantity)
	h.respond(w, r, st, err)
}

// ProceedToCheckout handles POST /sessions/{sid}/checkout
func (h *StorefrontHandler) ProceedToCheckout(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.ProceedToCheckout(chi.URLParam(r, "sid"))
	h.respond(w, r, st, err)
}

// ─── Checkout form ────────────────────────────────────────────────────────────

// UpdateBuyer handles PATCH /sessions/{sid}/buyer
func (h *StorefrontHandler) UpdateBuyer(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.UpdateBuyer(chi.URLParam(r, "sid"), checkout.BuyerField(req.Field), req.Value)
	h.respond(w, r, st, err)
}

// SetPhone handles PUT /sessions/{sid}/phone
func (h *StorefrontHandler) SetPhone(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.SetPhone(chi.URLParam(r, "sid"), req.CountryCode, req.LocalNumber)
	h.respond(w, r, st, err)
}

// UpdateHolder handles PATCH /sessions/{sid}/holders/{index}
func (h *StorefrontHandler) UpdateHolder(w http.ResponseWriter, r *http.Request) {
	i, err := holderIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.UpdateHolder(chi.URLParam(r, "sid"), i, checkout.HolderField(req.Field), req.Value)
	h.respond(w, r, st, err)
}

// ToggleHolderSync handles POST /sessions/{sid}/holders/{index}/sync
func (h *StorefrontHandler) ToggleHolderSync(w http.ResponseWriter, r *http.Request) {
	i, err := holderIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.svc.ToggleHolderSync(chi.URLParam(r, "sid"), i)
	h.respond(w, r, st, err)
}

// ApplyCoupon handles POST /sessions/{sid}/coupon
func (h *StorefrontHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.ApplyCoupon(chi.URLParam(r, "sid"), req.Code)
	h.respond(w, r, st, err)
}

// ─── Payment and tickets ──────────────────────────────────────────────────────

// Submit handles POST /sessions/{sid}/payment
// Validates the checkout form and starts the payment.
func (h *StorefrontHandler) Submit(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Submit(chi.URLParam(r, "sid"))
	h.respond(w, r, st, err)
}

// CompletePayment handles POST /sessions/{sid}/payment/complete
func (h *StorefrontHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.CompletePayment(chi.URLParam(r, "sid"))
	h.respond(w, r, st, err)
}

// ViewTickets handles POST /sessions/{sid}/tickets
func (h *StorefrontHandler) ViewTickets(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.ViewTickets(chi.URLParam(r, "sid"))
	h.respond(w, r, st, err)
}

// DownloadTickets handles GET /sessions/{sid}/tickets.pdf
// Streams every ticket of the transaction as one PDF attachment.
func (h *StorefrontHandler) DownloadTickets(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.ExportTickets(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		h.writeServiceError(w, r, err, nil)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// HealthCheck handles GET /health
func (h *StorefrontHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.svc.SessionCount(),
	})
}
