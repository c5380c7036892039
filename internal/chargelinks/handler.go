package chargelinks

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gridmarket/charges/internal/platform/httpx"
)

// CommandEnqueuer hands a decoded link command to the processing queue.
type CommandEnqueuer interface {
	EnqueueLinkCommand(ctx context.Context, cmd LinkCommand) error
}

// Handler exposes the charge link endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer CommandEnqueuer
	validate *validator.Validate
}

// NewHandler constructs the link HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, enqueuer CommandEnqueuer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		enqueuer: enqueuer,
		validate: validator.New(),
	}
}

// MountRoutes attaches the charge link endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/commands", h.SubmitCommand)
	r.Get("/{meteringPointID}", h.ListForMeteringPoint)
}

// SubmitCommand accepts a link command for asynchronous processing.
func (h *Handler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	var cmd LinkCommand
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Command", err.Error())
		return
	}
	if err := h.validate.Struct(cmd); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Command", err.Error())
		return
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}

	if err := h.enqueuer.EnqueueLinkCommand(r.Context(), cmd); err != nil {
		h.logger.Error("enqueue link command", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"correlationId": cmd.CorrelationID})
}

// ListForMeteringPoint returns the links attached to a metering point.
func (h *Handler) ListForMeteringPoint(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListForMeteringPoint(r.Context(), chi.URLParam(r, "meteringPointID"))
	if err != nil {
		h.logger.Error("list charge links", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if links == nil {
		links = []ChargeLink{}
	}
	httpx.JSON(w, http.StatusOK, links)
}
