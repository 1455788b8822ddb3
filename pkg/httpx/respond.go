package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/acmecommerce/shopflow/pkg/apperror"
)

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps the error taxonomy onto HTTP status codes.
func WriteError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		code = http.StatusNotFound
	case apperror.KindInvalid:
		code = http.StatusBadRequest
	case apperror.KindUpstream:
		code = http.StatusBadGateway
	}
	WriteJSON(w, code, map[string]string{"error": err.Error()})
}
