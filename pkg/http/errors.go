package http

import (
	"encoding/json"
	"net/http"
)

// Message is a human-readable message. It encodes as a plain string when it
// holds one entry and as an array of strings otherwise.
type Message []string

func (m Message) MarshalJSON() ([]byte, error) {
	switch len(m) {
	case 0:
		return json.Marshal("")
	case 1:
		return json.Marshal(m[0])
	}
	return json.Marshal([]string(m))
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*m = nil
		} else {
			*m = Message{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

// Envelope is the body of every API response.
type Envelope struct {
	Data    any     `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"` // Machine-readable error code
	Message Message `json:"message"`
}

// WriteJSON writes env with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors are not exposed to the client
	_ = json.NewEncoder(w).Encode(env)
}

// WriteData writes a successful response carrying data
func WriteData(w http.ResponseWriter, statusCode int, data any, message string) {
	WriteJSON(w, statusCode, Envelope{Data: data, Message: Message{message}})
}

// WriteError writes an error response. Several messages are sent as a list.
func WriteError(w http.ResponseWriter, statusCode int, errorCode string, messages ...string) {
	WriteJSON(w, statusCode, Envelope{Error: errorCode, Message: messages})
}

// WriteErrorWithData writes an error response that still carries data, such
// as an empty page for a failed list.
func WriteErrorWithData(w http.ResponseWriter, statusCode int, errorCode string, data any, messages ...string) {
	WriteJSON(w, statusCode, Envelope{Data: data, Error: errorCode, Message: messages})
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, messages ...string) {
	WriteError(w, http.StatusBadRequest, "bad_request", messages...)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message)
}

func WriteUnprocessable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, "unprocessable_entity", message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", message)
}

func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, "storage_unavailable", message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}
