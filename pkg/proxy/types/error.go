package types

// ErrorResponse is the body of every error answered by the agent API.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error details.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Param names the offending field, if any.
	Param string `json:"param,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeServerError    = "server_error"
	ErrorTypeBadGateway     = "bad_gateway"
)

// NewErrorResponse builds an error envelope.
func NewErrorResponse(message, errorType, param string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
		},
	}
}

// NewInvalidRequestError builds a 400 envelope.
func NewInvalidRequestError(message, param string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param)
}

// NewServerError builds a 500 envelope.
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "")
}

// NewBadGatewayError builds a 502 envelope.
func NewBadGatewayError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeBadGateway, "")
}
