package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrIncompleteTokenResponse is returned when a successful token response
// lacks the access or refresh token.
var ErrIncompleteTokenResponse = errors.New("authsdk: token response missing access or refresh token")

// RefreshGrant requests new tokens using a refresh token. The request is
// encoded according to RefreshEncoding.
func (c *SDKClient) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var (
		tokenResp *TokenResponse
		err       error
	)

	switch c.RefreshEncoding {
	case RefreshEncodingJSON:
		tokenResp, err = c.requestTokenJSON(ctx, c.refreshPath(), refreshRequest{RefreshToken: refreshToken})
	default:
		data := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refreshToken},
			"client_id":     {c.ClientID},
		}
		tokenResp, err = c.requestToken(ctx, c.refreshPath(), data)
	}
	if err != nil {
		return nil, err
	}

	if tokenResp.AccessToken == "" || tokenResp.RefreshToken == "" {
		return nil, ErrIncompleteTokenResponse
	}
	return tokenResp, nil
}

// ExchangeAuthorizationCode exchanges an authorization code for tokens.
// codeVerifier must be the verifier whose challenge went into the
// authorization request.
func (c *SDKClient) ExchangeAuthorizationCode(
	ctx context.Context,
	code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {c.ClientID},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}

	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.requestToken(ctx, DefaultTokenPath, data)
}

// RevokeToken revokes a refresh token.
func (c *SDKClient) RevokeToken(ctx context.Context, token string) error {
	data := url.Values{
		"token":     {token},
		"client_id": {c.ClientID},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, DefaultRevokePath, strings.NewReader(data.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return err
	}

	return checkStatus(resp, http.StatusOK)
}

func (c *SDKClient) requestToken(ctx context.Context, path string, data url.Values) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, path, strings.NewReader(data.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

func (c *SDKClient) requestTokenJSON(ctx context.Context, path string, body any) (*TokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
