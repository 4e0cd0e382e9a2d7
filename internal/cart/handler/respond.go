package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "trolley/pkg/domain-errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a coded domain error onto its HTTP status. Messages from
// non-domain errors are not leaked to clients.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal server error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	writeJSON(w, dErrors.HTTPStatus(code), errorResponse{
		Error:   string(code),
		Message: message,
	})
}
