package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/KeyNest/internal/vaulterr"
)

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch vaulterr.KindOf(err) {
	case vaulterr.Crypto:
		return http.StatusUnauthorized
	case vaulterr.State:
		if errors.Is(err, vaulterr.ErrLocked) {
			return http.StatusLocked
		}
		return http.StatusConflict
	case vaulterr.Format:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
