package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// RefreshEncoding selects the wire format of RefreshGrant.
type RefreshEncoding string

const (
	RefreshEncodingForm RefreshEncoding = "form"
	RefreshEncodingJSON RefreshEncoding = "json"
)

// Default issuer paths.
const (
	DefaultAuthorizePath = "/v1/oauth2/authorize"
	DefaultTokenPath     = "/v1/oauth2/token"
	DefaultRevokePath    = "/v1/oauth2/revoke"
)

// SDKClient is a client for the token issuance endpoint.
type SDKClient struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client

	// RefreshEncoding selects form (OAuth2) or JSON refresh requests.
	// Default: RefreshEncodingForm
	RefreshEncoding RefreshEncoding

	// RefreshPath is where RefreshGrant posts. Empty means DefaultTokenPath.
	RefreshPath string
}

// NewSDKClient creates a new issuer client.
func NewSDKClient(baseURL, clientID string) *SDKClient {
	return &SDKClient{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		ClientID: clientID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		RefreshEncoding: RefreshEncodingForm,
	}
}

func (c *SDKClient) refreshPath() string {
	if c.RefreshPath != "" {
		return c.RefreshPath
	}
	return DefaultTokenPath
}
