package api

import (
	"encoding/json"
	"fmt"
)

// StatusError is returned when the backend answers with a non-2xx status.
// Detail carries the body's "detail" field when it is a non-empty string.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// TransportError covers requests that never produced a usable response:
// dial and read failures, and success bodies that are not the expected JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// detailFrom extracts a string "detail" from an error body. FastAPI style
// validation errors carry a list there; those are ignored.
func detailFrom(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err != nil {
		return ""
	}
	return s
}
