package apperror

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the single error shape returned by every endpoint.
type Envelope struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	Errors     []FieldError `json:"errors,omitempty"`
	Timestamp  string       `json:"timestamp"`
	Path       string       `json:"path"`
}

var now = time.Now

func NewEnvelope(e *Error, path string) Envelope {
	return Envelope{
		StatusCode: e.Status(),
		Message:    e.Message,
		Errors:     e.Fields,
		Timestamp:  now().UTC().Format(time.RFC3339Nano),
		Path:       path,
	}
}

// Write renders e for handlers living outside the router, such as the
// rate limiter.
func Write(w http.ResponseWriter, r *http.Request, e *Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(NewEnvelope(e, r.URL.RequestURI()))
}
