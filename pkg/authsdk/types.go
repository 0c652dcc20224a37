package authsdk

// ErrorResponse represents a standard OAuth2 error response per RFC 6749.
// Client code should use the OAuth2Error type from errors.go instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// MessageErrorResponse is the {code, message} error body some issuers send.
type MessageErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TokenResponse is the token endpoint response. The JSON refresh endpoint
// answers with the same shape.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque refresh token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer" (RFC 6749 section 7.1)
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in,omitempty"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty"`
}

// refreshRequest is the JSON refresh body.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of each dependency in /readyz.
type HealthChecks struct {
	// CredentialStore indicates the credential backend status
	CredentialStore string `json:"credential_store"`
}
