package http

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the charge endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/commands", h.SubmitCommand)
	r.Get("/", h.List)
	r.Get("/{owner}/{type}/{chargeID}", h.Get)
}
