/*
Package authsdk is a client for the token issuance endpoint used by the
session pipeline.

# Overview

SDKClient covers the calls a browser-style client makes against the issuer:

  - BuildAuthorizeURL starts an authorization code flow with a proof key
  - ParseAuthorizationCallback reads the code and state off the redirect
  - ExchangeAuthorizationCode trades the code and verifier for tokens
  - RefreshGrant renews a token pair from a refresh token
  - RevokeToken invalidates a refresh token on sign-out

Create a client with the issuer base URL and the public client ID:

	client := authsdk.NewSDKClient("https://auth.example.com", "web-app")

	pair, _ := cryptox.NewProofKeyPair()
	redirect := client.BuildAuthorizeURL("https://app.example.com/callback", state, nil, pair)

	// ... user signs in, browser comes back to the callback ...

	code, gotState, err := authsdk.ParseAuthorizationCallback(callbackURL)
	tokens, err := client.ExchangeAuthorizationCode(ctx, code, redirectURI, pair.Verifier)

# Refresh encodings

RefreshGrant speaks the OAuth2 form grant by default:

	POST /v1/oauth2/token
	grant_type=refresh_token&refresh_token=...&client_id=...

Some issuers expose a bespoke JSON endpoint instead. Set RefreshEncoding to
RefreshEncodingJSON and RefreshPath to its location:

	client.RefreshEncoding = authsdk.RefreshEncodingJSON
	client.RefreshPath = "/api/v.0.0.1/refresh"

	POST /api/v.0.0.1/refresh
	{"refresh_token": "..."}

Both forms expect a JSON body carrying access_token and refresh_token.

# Errors

Non-2xx issuer responses are returned as *OAuth2Error with the HTTP status
and the RFC 6749 error code when the body carries one:

	tokens, err := client.RefreshGrant(ctx, refresh)
	var oauthErr *authsdk.OAuth2Error
	if errors.As(err, &oauthErr) && oauthErr.Code == authsdk.ErrorCodeInvalidGrant {
		// refresh token revoked or expired
	}
*/
package authsdk
