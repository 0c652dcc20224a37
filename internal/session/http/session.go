package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/httpx"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/renewal"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
)

// SessionSummary is what /app/ reports about the signed-in session.
type SessionSummary struct {
	Username  string   `json:"username,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
	ExpiresIn string   `json:"expires_in"`
	Renewal   string   `json:"renewal_state"`
	Renewals  uint64   `json:"renewals"`
}

// SessionHandler serves the guarded application root. It only runs after
// the guard has seen a valid access token.
type SessionHandler struct {
	Store       *tokenstore.Store
	Codec       *jwtx.Codec
	Coordinator *renewal.Coordinator
}

// ServeHTTP godoc
//
//	@Summary		Session summary
//	@Description	Guarded page. Redirects to the sign-in page unless a valid access token is held.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionSummary
//	@Success		303	{string}	string	"Redirect to the sign-in page"
//	@Router			/app/ [get]
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	access, _ := h.Store.Get(tokenstore.Access)

	var summary SessionSummary
	if claims, err := h.Codec.Decode(access); err == nil {
		summary.Username = claims.Username()
		summary.Scopes = claims.Scopes()
	}
	if d, err := h.Codec.ExpiresIn(access); err == nil {
		summary.ExpiresIn = d.Round(time.Second).String()
	}
	if h.Coordinator != nil {
		stats := h.Coordinator.Stats()
		summary.Renewal = stats.State.String()
		summary.Renewals = stats.Renewals
	}

	httpx.WriteJSON(w, http.StatusOK, summary)
}
