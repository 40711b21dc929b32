package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/metrics"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts the storefront API with its middleware stack.
func NewRouter(svc *service.Storefront, log *zap.Logger, allowedOrigin string) http.Handler {
	h := NewStorefrontHandler(svc, log)
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(log))             // structured access log
	r.Use(CORS(allowedOrigin))

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{sid}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)

			r.Post("/navigate", h.Navigate)
			r.Post("/navigate/confirm", h.ConfirmNavigation)
			r.Post("/navigate/cancel", h.CancelNavigation)

			r.Post("/event", h.OpenEvent)
			r.Put("/selection/{category}", h.SetQuantity)
			r.Post("/checkout", h.ProceedToCheckout)

			r.Patch("/buyer", h.UpdateBuyer)
			r.Put("/phone", h.SetPhone)
			r.Patch("/holders/{index}", h.UpdateHolder)
			r.Post("/holders/{index}/sync", h.ToggleHolderSync)
			r.Post("/coupon", h.ApplyCoupon)

			r.Post("/payment", h.Submit)
			r.Post("/payment/complete", h.CompletePayment)
			r.Post("/tickets", h.ViewTickets)
			r.Get("/tickets.pdf", h.DownloadTickets)
		})
	})

	return r
}
