package http

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/pipeline"
	"github.com/aussiebroadwan/tabsession/pkg/slogx"
)

// HeaderSessionExpired tells the front-end to return to sign-in.
const HeaderSessionExpired = "X-Session-Expired"

// NewAPIProxy forwards /api/* to target through the authenticating
// transport. The browser never sees a bearer token; any Authorization
// header it sends is dropped.
//
//	@Summary		Protected API pass-through
//	@Description	Forwards the request with the session's bearer token. When the token is rejected the
//	@Description	session is renewed once and the request retried. If renewal fails the response is
//	@Description	401 with X-Session-Expired: 1.
//	@Tags			API
//	@Param			path	path		string	true	"Upstream path"
//	@Success		200		{string}	string	"Upstream response"
//	@Failure		401		{object}	map[string]string	"error, error_description"
//	@Failure		502		{object}	map[string]string	"error, error_description"
//	@Router			/api/{path} [get]
func NewAPIProxy(target *url.URL, transport *pipeline.Transport) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log := slogx.FromContext(r.Context())

			if pipeline.IsSessionExpired(err) {
				log.Info("session expired during api call", "path", r.URL.Path)
				w.Header().Set(HeaderSessionExpired, "1")
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			log.Error("api upstream failed", "path", r.URL.Path, "err", err)
			authsdk.NewOAuth2Error(http.StatusBadGateway, authsdk.ErrorCodeServerError, "upstream unavailable").WriteError(w)
		},
	}
}
