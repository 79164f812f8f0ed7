package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iota-uz/campus-sdk/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// StatusMapping pairs a sentinel with the HTTP status it is reported as.
type StatusMapping struct {
	Err    error
	Status int
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, requestID, code, message string) error {
	var meta map[string]string
	if requestID != "" {
		meta = map[string]string{"request_id": requestID}
	}
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteServiceError reports err with the status of the first matching
// mapping, or 500 with fallbackCode. Coded errors keep their code.
func WriteServiceError(w http.ResponseWriter, requestID string, err error, fallbackCode string, mappings ...StatusMapping) error {
	status := http.StatusInternalServerError
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			status = m.Status
			break
		}
	}
	return WriteError(w, status, requestID, serrors.Code(err, fallbackCode), err.Error())
}
