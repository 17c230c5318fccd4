package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-oauthd/oauthd/internal/middleware"
	"github.com/go-oauthd/oauthd/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthorizeHandler struct {
	authorizationService *services.AuthorizationService
}

func NewAuthorizeHandler(as *services.AuthorizationService) *AuthorizeHandler {
	return &AuthorizeHandler{authorizationService: as}
}

// Authorize handles GET /authorize, the entry point of the
// authorization code flow. With a logged-in session it issues a code
// and redirects to the client; without one it suspends to /login and
// the browser replays the full request after authentication.
func (h *AuthorizeHandler) Authorize(c *gin.Context) {
	req := services.AuthorizeRequest{
		ResponseType:        c.Query("response_type"),
		ClientID:            c.Query("client_id"),
		RedirectURI:         c.Query("redirect_uri"),
		Scope:               c.Query("scope"),
		State:               c.Query("state"),
		CodeChallenge:       c.Query("code_challenge"),
		CodeChallengeMethod: c.Query("code_challenge_method"),
		UserID:              middleware.CurrentUserID(c),
	}

	redirectURL, err := h.authorizationService.Authorize(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrAuthRequired) {
			next := url.QueryEscape(c.Request.URL.String())
			c.Redirect(http.StatusFound, "/login?next="+next)
			return
		}
		writeOAuthError(c, err)
		return
	}

	c.Redirect(http.StatusFound, redirectURL)
}
