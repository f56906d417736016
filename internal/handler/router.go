package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/vega-gateway/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware шлюза.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/access", h.EnterByAccessCode)
		r.Post("/session/login", h.Login)

		r.Get("/catalog", h.GetCatalog)
		r.Post("/checkout", h.Checkout)
		r.Post("/affiliate", h.RequestAffiliate)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/orders", h.GetOrders)
			r.Get("/stats", h.GetStats)

			r.Get("/staff", h.GetStaff)
			r.Post("/staff/{id}/status", h.SetStaffStatus)
			r.Post("/settle/{id}", h.Settle)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
