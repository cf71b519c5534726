package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrBodyTooLarge is returned by ParseJSON when the body exceeds its limit
var ErrBodyTooLarge = errors.New("request body too large")

// ParseJSON decodes a JSON body into dest, reading at most maxBytes.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
