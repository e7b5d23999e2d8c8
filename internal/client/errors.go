package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int

	// Code is the gRPC status code from the gateway error body, 0 if absent.
	Code int

	// Message is the server's error message, or the HTTP status text when
	// the body carried none.
	Message string

	Details []json.RawMessage
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed: HTTP %d: %s", e.StatusCode, e.Message)
}

// newAPIError reads a grpc-gateway status body: {"code":5,"message":"...","details":[]}.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		e.Code = int(doc.Get("code").Int())
		e.Message = doc.Get("message").String()
		doc.Get("details").ForEach(func(_, d gjson.Result) bool {
			e.Details = append(e.Details, json.RawMessage(d.Raw))
			return true
		})
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// Message returns the human-readable message of err: the server message for
// an *APIError, err.Error() otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
