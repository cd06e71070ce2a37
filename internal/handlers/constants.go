package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrInternalServerError = "Internal server error"

	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20
)
