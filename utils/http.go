package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the uniform error body.
// Error carries the HTTP status for request errors and the provider code for auth errors.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   interface{} `json:"error"`
	Message string      `json:"message"`
}

// statusMessages are the fixed messages clients see for request errors
var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusNotFound:            "Resource not found",
	http.StatusMethodNotAllowed:    "Method not allowed",
	http.StatusUnprocessableEntity: "unprocessable entity",
	http.StatusInternalServerError: "Internal server error",
	http.StatusServiceUnavailable:  "Service unavailable",
}

// StatusMessage returns the client-facing message for status
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return http.StatusText(status)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response with "success": true merged into fields
func WriteSuccess(w http.ResponseWriter, fields map[string]interface{}) error {
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	return WriteJSON(w, http.StatusOK, body)
}

// WriteError writes the uniform error body for status
func WriteError(w http.ResponseWriter, status int) error {
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   status,
		Message: StatusMessage(status),
	})
}

// WriteAuthError writes an authentication failure carrying the provider code
func WriteAuthError(w http.ResponseWriter, status int, code, description string) error {
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   code,
		Message: description,
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter) error {
	return WriteError(w, http.StatusNotFound)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed)
}
