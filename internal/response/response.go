package response

// SuccessResponse is the acknowledgement body for operations with nothing else to return.
type SuccessResponse struct {
	Message string `json:"message" example:"Turn removed"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	// Machine readable error code
	// example: TURN_NOT_FOUND
	Code string `json:"code"`

	// Human readable message
	// example: Turn not found
	Message string `json:"message"`

	// Optional details, such as the binding error
	// example: Key: 'JoinRequest.EventID' Error:Field validation
	Details string `json:"details,omitempty"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`
}
