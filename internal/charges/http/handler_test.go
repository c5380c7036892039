package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/platform/httpx"
)

type memoryRepo struct {
	charges map[string]*charges.Charge
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{charges: make(map[string]*charges.Charge)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, charges.Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) GetOrNull(ctx context.Context, id charges.ChargeIdentifier) (*charges.Charge, error) {
	return r.charges[id.Key()], nil
}

func (r *memoryRepo) Add(ctx context.Context, charge *charges.Charge) (int64, error) {
	r.charges[charge.Identifier.Key()] = charge
	return 1, nil
}

func (r *memoryRepo) UpdatePeriods(ctx context.Context, charge *charges.Charge) error {
	return nil
}

func (r *memoryRepo) MarkProcessed(ctx context.Context, operationID, chargeKey string) error {
	return nil
}

func (r *memoryRepo) List(ctx context.Context, ownerID string) ([]charges.Charge, error) {
	var out []charges.Charge
	for _, c := range r.charges {
		if ownerID == "" || c.Identifier.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type capturingEnqueuer struct {
	commands []charges.Command
}

func (e *capturingEnqueuer) EnqueueChargeCommand(ctx context.Context, cmd charges.Command) error {
	e.commands = append(e.commands, cmd)
	return nil
}

func testRouter(t *testing.T) (*chi.Mux, *memoryRepo, *capturingEnqueuer) {
	t.Helper()
	repo := newMemoryRepo()
	enqueuer := &capturingEnqueuer{}
	handler := NewHandler(slog.Default(), repo, enqueuer, nil)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r, repo, enqueuer
}

func commandBody(t *testing.T) string {
	t.Helper()
	cmd := charges.Command{
		Document: charges.Document{
			SenderID:           "5790000000001",
			RecipientID:        "5790000000002",
			BusinessReasonCode: charges.ReasonUpdateChargeInformation,
		},
		Operations: []charges.Operation{{
			OperationID:   "op-1",
			Kind:          charges.KindCreate,
			ChargeID:      "EA-001",
			ChargeType:    charges.ChargeTypeTariff,
			OwnerID:       "5790000000001",
			Resolution:    charges.ResolutionDay,
			StartDateTime: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		}},
	}
	raw, err := json.Marshal(cmd)
	require.NoError(t, err)
	return string(raw)
}

func TestSubmitCommandAcceptsAndEnqueues(t *testing.T) {
	router, _, enqueuer := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(commandBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["correlationId"])

	require.Len(t, enqueuer.commands, 1)
	require.Equal(t, body["correlationId"], enqueuer.commands[0].CorrelationID)
}

func TestSubmitCommandRejectsMalformedJSON(t *testing.T) {
	router, _, enqueuer := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, enqueuer.commands)
}

func TestSubmitCommandRejectsEmptyOperations(t *testing.T) {
	router, _, enqueuer := testRouter(t)

	body := `{"document":{"senderId":"5790000000001","recipientId":"5790000000002","businessReasonCode":"UpdateChargeInformation"},"operations":[]}`
	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, enqueuer.commands)
}

func TestListReturnsCharges(t *testing.T) {
	router, repo, _ := testRouter(t)
	repo.charges["5790000000001|TARIFF|EA-001"] = &charges.Charge{
		ID: 1,
		Identifier: charges.ChargeIdentifier{
			SenderProvidedChargeID: "EA-001",
			OwnerID:                "5790000000001",
			ChargeType:             charges.ChargeTypeTariff,
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/?owner=5790000000001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out []charges.Charge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
}

func TestListReturnsEmptyArrayWhenNoCharges(t *testing.T) {
	router, _, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetReturnsChargeWithTimeline(t *testing.T) {
	router, repo, _ := testRouter(t)
	repo.charges["5790000000001|TARIFF|EA-001"] = &charges.Charge{
		ID: 1,
		Identifier: charges.ChargeIdentifier{
			SenderProvidedChargeID: "EA-001",
			OwnerID:                "5790000000001",
			ChargeType:             charges.ChargeTypeTariff,
		},
		Periods: []charges.ChargePeriod{{
			Name:          "Grid fee",
			StartDateTime: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDateTime:   charges.EndDefault,
		}},
	}

	req := httptest.NewRequest(http.MethodGet, "/5790000000001/TARIFF/EA-001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out charges.Charge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Periods, 1)
	require.Equal(t, "Grid fee", out.Periods[0].Name)
}

func TestGetUnknownChargeReturnsNotFound(t *testing.T) {
	router, _, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/5790000000001/TARIFF/EA-404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, httpx.TypeChargeNotFound, problem.Type)
}
