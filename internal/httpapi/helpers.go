package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/muness/unified-hifi-control/internal/apperr"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to an HTTP status via apperr.Kind.HTTPStatus (the
// taxonomy in spec.md §7) and writes it as a small JSON body. Any error
// that isn't an *apperr.Error is a 500 — a logic bug, not a modeled
// failure.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var ae *apperr.Error
	if errors.As(err, &ae) {
		w.WriteHeader(ae.Kind.HTTPStatus())
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": ae.Error(),
			"kind":  string(ae.Kind),
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
