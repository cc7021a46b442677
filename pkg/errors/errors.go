package errors

import "fmt"

// Error codes
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeResponse   = "RESPONSE_ERROR"
	CodeTransport  = "TRANSPORT_ERROR"
	CodeDOM        = "DOM_ERROR"
)

type ClientError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ValidationError is a client-side input rejection. No request is made.
type ValidationError struct {
	*ClientError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		ClientError: &ClientError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// APIError carries a structured error reported by the backend.
type APIError struct {
	*ClientError
	Endpoint string
}

func NewAPIError(message, endpoint string, statusCode int) *APIError {
	return &APIError{
		ClientError: &ClientError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context: map[string]any{
				"endpoint": endpoint,
			},
		},
		Endpoint: endpoint,
	}
}

// ResponseError reports a JSON body whose shape does not match the endpoint contract.
type ResponseError struct {
	*ClientError
	Endpoint string
}

func NewResponseError(message, endpoint string, statusCode int, cause error) *ResponseError {
	return &ResponseError{
		ClientError: &ClientError{
			Message:    message,
			Code:       CodeResponse,
			StatusCode: statusCode,
			Context: map[string]any{
				"endpoint": endpoint,
			},
			Cause: cause,
		},
		Endpoint: endpoint,
	}
}

// TransportError covers unreachable servers and bodies that are not JSON at all.
type TransportError struct {
	*ClientError
	Endpoint string
}

func NewTransportError(message, endpoint string, cause error) *TransportError {
	return &TransportError{
		ClientError: &ClientError{
			Message: message,
			Code:    CodeTransport,
			Context: map[string]any{
				"endpoint": endpoint,
			},
			Cause: cause,
		},
		Endpoint: endpoint,
	}
}

type DOMError struct {
	*ClientError
	ElementID string
}

func NewDOMError(message, elementID string) *DOMError {
	return &DOMError{
		ClientError: &ClientError{
			Message: message,
			Code:    CodeDOM,
			Context: map[string]any{
				"element_id": elementID,
			},
		},
		ElementID: elementID,
	}
}
