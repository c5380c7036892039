package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/shared"
)

func TestRespondErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		problemType string
	}{
		{"charge not found", charges.ErrNotFound, http.StatusNotFound, TypeChargeNotFound},
		{"charge exists", charges.ErrAlreadyExists, http.StatusConflict, TypeChargeExists},
		{"invariant violation", fmt.Errorf("%w: bad command", shared.ErrInvariantViolation), http.StatusUnprocessableEntity, TypeInvalidCommand},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			require.Equal(t, tc.problemType, problem.Type)
			require.Equal(t, tc.status, problem.Status)
		})
	}
}

func TestRespondErrorHidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pool exhausted"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Empty(t, problem.Detail)
}
