package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/wishx/internal/shared"
)

// APIError is a non-2xx response from the backend.
//
// Message is the human-readable text extracted from the response body and is
// what [APIError.Error] returns, so it can be shown to users as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap maps the status onto the shared sentinels so callers can use [errors.Is].
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return shared.ErrNotAuthenticated
	case e.Status >= 400 && e.Status < 500:
		return shared.ErrClientRequest
	default:
		return shared.ErrAPIRequest
	}
}

type errorBody struct {
	Detail errorDetail `json:"detail"`
}

// errorDetail decodes the backend's detail field, which is either a string or a
// list of validation entries. Any other shape decodes to an empty message.
type errorDetail struct {
	Message string
}

func (d *errorDetail) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		d.Message = text
		return nil
	}

	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(data, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg != "" {
				msgs = append(msgs, e.Msg)
			}
		}
		d.Message = strings.Join(msgs, ", ")
		return nil
	}

	d.Message = ""
	return nil
}

func newAPIError(status int, data []byte) *APIError {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	msg := strings.TrimSpace(body.Detail.Message)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}
	return &APIError{Status: status, Message: msg}
}
