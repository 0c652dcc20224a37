package authsdk

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/tabsession/pkg/cryptox"
)

// BuildAuthorizeURL constructs the issuer URL that starts an authorization
// code flow. The caller keeps pair.Verifier for ExchangeAuthorizationCode.
//
// Example:
//
//	pair, _ := cryptox.NewProofKeyPair()
//	u := client.BuildAuthorizeURL("https://app.example.com/callback", state, []string{"profile:read"}, pair)
func (c *SDKClient) BuildAuthorizeURL(
	redirectURI, state string,
	scopes []string,
	pair *cryptox.ProofKeyPair,
) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.ClientID)
	params.Set("redirect_uri", redirectURI)

	if state != "" {
		params.Set("state", state)
	}

	if len(scopes) > 0 {
		params.Set("scope", strings.Join(scopes, " "))
	}

	if pair != nil {
		params.Set("code_challenge", pair.Challenge)
		params.Set("code_challenge_method", pair.Method)
	}

	return fmt.Sprintf("%s%s?%s", c.BaseURL, DefaultAuthorizePath, params.Encode())
}

// ParseAuthorizationCallback extracts the authorization code and state from
// the redirect URL (or its raw query). An error response from the issuer is
// returned as *OAuth2Error.
func ParseAuthorizationCallback(callbackURL string) (code, state string, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse callback URL: %w", err)
	}

	return ParseAuthorizationQuery(u.Query())
}

// ParseAuthorizationQuery is ParseAuthorizationCallback for an already
// parsed query, as seen by an HTTP handler.
func ParseAuthorizationQuery(query url.Values) (code, state string, err error) {
	if errorCode := query.Get("error"); errorCode != "" {
		return "", "", &OAuth2Error{
			Code:        errorCode,
			Description: query.Get("error_description"),
		}
	}

	code = query.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("callback missing authorization code")
	}

	return code, query.Get("state"), nil
}
