// internal/web/respond.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError reports err as a JSON error body.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// WriteMessage reports an error code alongside its human-readable message.
func WriteMessage(w http.ResponseWriter, status int, err error, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   err.Error(),
		"message": message,
	})
}

// DecodeJSON decodes a request body, rejecting empty bodies.
func DecodeJSON(body io.Reader, v interface{}) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}
