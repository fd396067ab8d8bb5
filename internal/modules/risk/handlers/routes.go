package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk calculation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/var", h.HandleCalculateVaR)
		r.Get("/metrics", h.HandleGetMetrics)
		r.Get("/correlation", h.HandleGetCorrelation)
	})

	r.Route("/prices", func(r chi.Router) {
		r.Post("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			symbol := chi.URLParam(r, "symbol")
			h.HandleSavePrices(w, r, symbol)
		})
	})
}
