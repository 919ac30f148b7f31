package shopify

import "errors"

// APIError is a failed call: transport, HTTP status or top-level GraphQL errors.
type APIError struct {
	Operation string
	// Status is the HTTP status of the response, 0 when none arrived.
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// FieldError is one entry of a mutation's userErrors.
type FieldError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserError is a mutation rejected by Shopify with userErrors, e.g. an unknown
// merchandise id.
type UserError struct {
	Operation string
	Errors    []FieldError
}

// Error returns the first user error message.
func (e *UserError) Error() string {
	if len(e.Errors) == 0 {
		return e.Operation + " rejected"
	}
	return e.Errors[0].Message
}

// IsUserError reports whether err is or wraps a *UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}
