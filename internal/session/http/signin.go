package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/cryptox"
	"github.com/aussiebroadwan/tabsession/pkg/slogx"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
)

const (
	// pkceCookieName holds "<state>.<verifier>" between /login and /callback.
	pkceCookieName   = "tabsession_pkce"
	pkceCookieMaxAge = 600 // seconds

	postSignInPath = "/app/"
)

// SignInHandler runs the authorization code flow against the issuer and
// owns the explicit session teardown.
type SignInHandler struct {
	Issuer      *authsdk.SDKClient
	Store       *tokenstore.Store
	RedirectURI string
	Scopes      []string
	SignInPath  string
	ClearFunc   func(ctx context.Context, reason string)
}

// HandleLogin godoc
//
//	@Summary		Start sign-in
//	@Description	Generates a PKCE pair and state, remembers them in a short-lived HttpOnly cookie
//	@Description	and redirects the browser to the issuer's authorize endpoint.
//	@Tags			Session
//	@Success		302	{string}	string	"Redirect to the issuer"
//	@Failure		500	{object}	map[string]string	"error, error_description"
//	@Router			/login [get]
func (h *SignInHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	pair, err := cryptox.NewProofKeyPair()
	if err != nil {
		log.Error("failed to generate PKCE pair", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate state", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookieName,
		Value:    state + "." + pair.Verifier,
		Path:     "/callback",
		MaxAge:   pkceCookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.Issuer.BuildAuthorizeURL(h.RedirectURI, state, h.Scopes, pair), http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Finish sign-in
//	@Description	Checks state, exchanges the authorization code and PKCE verifier for a credential
//	@Description	pair, stores it and redirects to the application.
//	@Tags			Session
//	@Param			code	query		string	true	"Authorization code"
//	@Param			state	query		string	true	"State echoed by the issuer"
//	@Success		303		{string}	string	"Redirect to /app/"
//	@Failure		400		{object}	map[string]string	"error, error_description"
//	@Failure		401		{object}	map[string]string	"error, error_description"
//	@Failure		403		{object}	map[string]string	"error, error_description - sign-in declined"
//	@Router			/callback [get]
func (h *SignInHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code, state, err := authsdk.ParseAuthorizationQuery(r.URL.Query())
	if err != nil {
		var oerr *authsdk.OAuth2Error
		if errors.As(err, &oerr) && oerr.Code == authsdk.ErrorCodeAccessDenied {
			log.Info("sign-in declined by user")
			authsdk.ErrAccessDenied.WriteError(w)
			return
		}
		if errors.As(err, &oerr) {
			log.Warn("issuer rejected authorization", "error_code", oerr.Code)
			authsdk.NewOAuth2Error(http.StatusBadRequest, oerr.Code, oerr.Description).WriteError(w)
			return
		}
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	cookie, err := r.Cookie(pkceCookieName)
	if err != nil {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "sign-in was not started from this browser").WriteError(w)
		return
	}
	h.expirePKCECookie(w)

	wantState, verifier, ok := strings.Cut(cookie.Value, ".")
	if !ok || subtle.ConstantTimeCompare([]byte(wantState), []byte(state)) != 1 {
		log.Warn("state mismatch on callback")
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "state mismatch").WriteError(w)
		return
	}

	tokens, err := h.Issuer.ExchangeAuthorizationCode(ctx, code, h.RedirectURI, verifier)
	if err != nil {
		log.Warn("code exchange failed", "err", err)
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.Store.Set(tokens.AccessToken, tokens.RefreshToken); err != nil {
		// Memory is updated; only persistence failed.
		log.Warn("credential pair not persisted", "err", err)
	}

	log.Info("signed in", "token_fp", cryptox.FingerprintToken(tokens.AccessToken))
	http.Redirect(w, r, postSignInPath, http.StatusSeeOther)
}

// HandleLogout godoc
//
//	@Summary		Sign out
//	@Description	Revokes the refresh token at the issuer (best effort), clears the credential
//	@Description	pair and redirects to the sign-in page.
//	@Tags			Session
//	@Success		303	{string}	string	"Redirect to the sign-in page"
//	@Router			/logout [post]
func (h *SignInHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if refresh, ok := h.Store.Get(tokenstore.Refresh); ok {
		if err := h.Issuer.RevokeToken(ctx, refresh); err != nil {
			log.Warn("revoke failed", "err", err)
		}
	}

	h.ClearFunc(ctx, "logout")
	http.Redirect(w, r, h.SignInPath, http.StatusSeeOther)
}

func (h *SignInHandler) expirePKCECookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookieName,
		Value:    "",
		Path:     "/callback",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
