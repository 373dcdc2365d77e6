package handlers

import (
	"encoding/json"
	"net/http"
)

// ApiResponse is the success envelope of every JSON endpoint.
type ApiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorBody is the error envelope. Details carries machine-readable context,
// such as the names a caller may pick from when a field did not resolve.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse writes an ErrorBody without details.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: errorCode, Message: message})
}

// ErrorResponseWithDetails writes an ErrorBody with details.
func ErrorResponseWithDetails(w http.ResponseWriter, statusCode int, errorCode, message string, details any) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: errorCode, Message: message, Details: details})
}

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
