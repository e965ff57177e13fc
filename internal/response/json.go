package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape used by every API endpoint.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteData writes a success envelope with optional message and data.
func WriteData(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Status: "success", Message: message, Data: data})
}

// WriteErr writes an error envelope with a machine-readable code.
func WriteErr(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, Envelope{Status: "error", Message: message, Code: code})
}
