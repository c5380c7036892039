// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/shared"
)

// Problem type URIs advertised on the charge administration surface.
const (
	TypeChargeNotFound = "/problems/charge-not-found"
	TypeChargeExists   = "/problems/charge-already-exists"
	TypeInvalidCommand = "/problems/invalid-command"
)

// RespondError maps charge domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, charges.ErrNotFound):
		TypedProblem(w, TypeChargeNotFound, http.StatusNotFound, "Charge Not Found", err.Error())
	case errors.Is(err, charges.ErrAlreadyExists):
		TypedProblem(w, TypeChargeExists, http.StatusConflict, "Charge Already Exists", err.Error())
	case errors.Is(err, shared.ErrInvariantViolation):
		TypedProblem(w, TypeInvalidCommand, http.StatusUnprocessableEntity, "Invalid Command", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
