package handlers

import (
	"net/http"
	"time"

	"github.com/go-oauthd/oauthd/internal/models"
	"github.com/go-oauthd/oauthd/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	// https://datatracker.ietf.org/doc/html/rfc8628#section-3.4
	GrantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"
	// https://datatracker.ietf.org/doc/html/rfc6749#section-6
	GrantTypeRefreshToken = "refresh_token"
	// https://datatracker.ietf.org/doc/html/rfc6749#section-4.1
	GrantTypeAuthorizationCode = "authorization_code"
	// https://datatracker.ietf.org/doc/html/rfc6749#section-4.4
	GrantTypeClientCredentials = "client_credentials"
)

type TokenHandler struct {
	tokenService *services.TokenService
}

func NewTokenHandler(ts *services.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: ts}
}

// Token handles POST /token, dispatching on grant_type (RFC 6749 §3.2).
func (h *TokenHandler) Token(c *gin.Context) {
	grantType := c.PostForm("grant_type")

	switch grantType {
	case GrantTypeAuthorizationCode:
		h.handleAuthorizationCodeGrant(c)
	case GrantTypeClientCredentials:
		h.handleClientCredentialsGrant(c)
	case GrantTypeRefreshToken:
		h.handleRefreshTokenGrant(c)
	case GrantTypeDeviceCode:
		h.handleDeviceCodeGrant(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported_grant_type",
			"error_description": "Supported grant types: authorization_code, client_credentials, refresh_token, device_code",
		})
	}
}

// handleAuthorizationCodeGrant handles authorization code exchange (RFC 6749 §4.1.3)
func (h *TokenHandler) handleAuthorizationCodeGrant(c *gin.Context) {
	code := c.PostForm("code")
	clientID := c.PostForm("client_id")
	redirectURI := c.PostForm("redirect_uri")
	codeVerifier := c.PostForm("code_verifier")

	if code == "" || clientID == "" || redirectURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "code, client_id and redirect_uri are required",
		})
		return
	}

	t, err := h.tokenService.ExchangeAuthorizationCode(
		c.Request.Context(),
		code,
		clientID,
		redirectURI,
		codeVerifier,
	)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	writeTokenResponse(c, t)
}

// handleClientCredentialsGrant handles machine-to-machine issuance (RFC 6749 §4.4)
func (h *TokenHandler) handleClientCredentialsGrant(c *gin.Context) {
	clientID := c.PostForm("client_id")
	clientSecret := c.PostForm("client_secret")

	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "client_id is required",
		})
		return
	}

	t, err := h.tokenService.IssueClientCredentialsToken(
		c.Request.Context(),
		clientID,
		clientSecret,
	)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	writeTokenResponse(c, t)
}

// handleRefreshTokenGrant handles refresh token rotation (RFC 6749 §6)
func (h *TokenHandler) handleRefreshTokenGrant(c *gin.Context) {
	refreshToken := c.PostForm("refresh_token")
	clientID := c.PostForm("client_id")

	if refreshToken == "" || clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "refresh_token and client_id are required",
		})
		return
	}

	t, err := h.tokenService.RefreshAccessToken(c.Request.Context(), refreshToken, clientID)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	writeTokenResponse(c, t)
}

// handleDeviceCodeGrant handles one device flow poll (RFC 8628 §3.4)
func (h *TokenHandler) handleDeviceCodeGrant(c *gin.Context) {
	deviceCode := c.PostForm("device_code")
	clientID := c.PostForm("client_id")

	if deviceCode == "" || clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "device_code and client_id are required",
		})
		return
	}

	t, err := h.tokenService.ExchangeDeviceCode(c.Request.Context(), deviceCode, clientID)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	writeTokenResponse(c, t)
}

func writeTokenResponse(c *gin.Context, t *models.Token) {
	c.JSON(http.StatusOK, gin.H{
		"access_token":  t.AccessToken,
		"refresh_token": t.RefreshToken,
		"token_type":    t.TokenType,
		"expires_in":    int(time.Until(t.ExpiresAt).Seconds()),
		"scope":         t.Scope,
	})
}
