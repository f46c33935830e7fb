// Package shared holds the JSON response helpers every handler uses, so the
// error envelope and content type stay identical across modules.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "cetrack/pkg/domain-errors"
)

// ErrorResponse is the wire shape of every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into its HTTP status and
// envelope. Uncoded errors become opaque 500s; their detail belongs in logs,
// not responses.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}

	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		resp.Message = de.Message
	}
	WriteJSON(w, dErrors.HTTPStatus(code), resp)
}
