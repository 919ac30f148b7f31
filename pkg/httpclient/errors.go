package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/mattparisien/becoming-front/pkg/errors"
)

// ResponseError describes a non-2xx response from a downstream service.
type ResponseError struct {
	Service    string
	StatusCode int
	// Message is the downstream's own error text, empty when the body had none.
	Message string
	Body    []byte
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// AppError converts the response into an AppError carrying the downstream
// status. fallback is used when the downstream sent no message.
func (e *ResponseError) AppError(fallback string) *apperrors.AppError {
	msg := e.Message
	if msg == "" {
		msg = fallback
	}
	switch e.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFoundMessage(msg)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case http.StatusConflict:
		return apperrors.Conflict(msg)
	case http.StatusGone:
		return apperrors.Gone(msg)
	default:
		return apperrors.Upstream(e.StatusCode, msg)
	}
}

// errorBody matches both `{"error": "text"}` and `{"error": {"message": "text"}}`.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// ParseResponseError reads and closes the body of a non-2xx response.
func ParseResponseError(resp *http.Response, service string) *ResponseError {
	defer func() { _ = resp.Body.Close() }()

	out := &ResponseError{Service: service, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out
	}
	out.Body = body
	out.Message = extractMessage(body)
	return out
}

func extractMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil || len(eb.Error) == 0 {
		return ""
	}

	var text string
	if json.Unmarshal(eb.Error, &text) == nil {
		return text
	}

	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(eb.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}
