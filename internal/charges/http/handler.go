package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/platform/httpx"
)

// CommandEnqueuer hands a decoded command to the async processing queue.
type CommandEnqueuer interface {
	EnqueueChargeCommand(ctx context.Context, cmd charges.Command) error
}

// Handler exposes the charge command and read endpoints.
type Handler struct {
	logger   *slog.Logger
	repo     charges.Repository
	enqueuer CommandEnqueuer
	cache    *charges.Cache
	validate *validator.Validate
	reads    singleflight.Group
}

// NewHandler constructs the charge HTTP handler. Cache may be nil.
func NewHandler(logger *slog.Logger, repo charges.Repository, enqueuer CommandEnqueuer, cache *charges.Cache) *Handler {
	return &Handler{
		logger:   logger,
		repo:     repo,
		enqueuer: enqueuer,
		cache:    cache,
		validate: validator.New(),
	}
}

// SubmitCommand accepts a charge command for asynchronous processing. The
// transport gate only rejects malformed payloads; the rule engine decides
// acceptance.
func (h *Handler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	var cmd charges.Command
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

	if err := h.enqueuer.EnqueueChargeCommand(r.Context(), cmd); err != nil {
		h.logger.Error("enqueue charge command", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"correlationId": cmd.CorrelationID})
}

// List returns charges, optionally filtered by owner. Concurrent identical
// reads share one repository query.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	result, err, _ := h.reads.Do("list:"+owner, func() (interface{}, error) {
		return h.cache.FetchList(r.Context(), owner, func(ctx context.Context) ([]charges.Charge, error) {
			return h.repo.List(ctx, owner)
		})
	})
	out, _ := result.([]charges.Charge)
	if err != nil {
		h.logger.Error("list charges", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []charges.Charge{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get returns one charge with its full period timeline.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := charges.ChargeIdentifier{
		OwnerID:                chi.URLParam(r, "owner"),
		ChargeType:             charges.ChargeType(chi.URLParam(r, "type")),
		SenderProvidedChargeID: chi.URLParam(r, "chargeID"),
	}
	charge, err := h.repo.GetOrNull(r.Context(), id)
	if err != nil {
		h.logger.Error("get charge", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if charge == nil {
		httpx.RespondError(w, charges.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, charge)
}
