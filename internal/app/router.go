package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridmarket/charges/internal/chargelinks"
	chargeshttp "github.com/gridmarket/charges/internal/charges/http"
	"github.com/gridmarket/charges/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	ChargesHandler *chargeshttp.Handler
	LinksHandler   *chargelinks.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router for the charge API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/charges", params.ChargesHandler.MountRoutes)
	if params.LinksHandler != nil {
		r.Route("/api/charge-links", params.LinksHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
