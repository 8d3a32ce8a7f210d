package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
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

// WriteSuccess writes fields next to "success": true
func WriteSuccess(w http.ResponseWriter, status int, fields map[string]interface{}) error {
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	return WriteJSON(w, status, body)
}

// WriteOK writes a 200 OK success envelope
func WriteOK(w http.ResponseWriter, fields map[string]interface{}) error {
	return WriteSuccess(w, http.StatusOK, fields)
}

// WriteCreated writes a 201 Created success envelope
func WriteCreated(w http.ResponseWriter, fields map[string]interface{}) error {
	return WriteSuccess(w, http.StatusCreated, fields)
}

// WriteError writes the failure envelope with a machine-readable code
func WriteError(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   code,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "bad request"
	}
	return WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "resource not found"
	}
	return WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

// WriteUnprocessable writes a 422 response listing the offending fields
func WriteUnprocessable(w http.ResponseWriter, message string, fields map[string]string) error {
	if message == "" {
		message = "unprocessable"
	}
	return WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Success: false,
		Error:   "unprocessable_entity",
		Message: message,
		Fields:  fields,
	})
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "internal server error"
	}
	return WriteError(w, http.StatusInternalServerError, "internal_error", message)
}
