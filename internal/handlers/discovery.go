package handlers

import (
	"net/http"

	"github.com/go-oauthd/oauthd/internal/config"
	"github.com/go-oauthd/oauthd/internal/pkce"

	"github.com/gin-gonic/gin"
)

type DiscoveryHandler struct {
	config *config.Config
}

func NewDiscoveryHandler(cfg *config.Config) *DiscoveryHandler {
	return &DiscoveryHandler{config: cfg}
}

// Metadata serves GET /.well-known/oauth-authorization-server (RFC 8414).
func (h *DiscoveryHandler) Metadata(c *gin.Context) {
	base := h.config.BaseURL
	c.JSON(http.StatusOK, gin.H{
		"issuer":                        base,
		"authorization_endpoint":        base + "/authorize",
		"token_endpoint":                base + "/token",
		"device_authorization_endpoint": base + "/device/authorize",
		"registration_endpoint":         base + "/clients",
		"grant_types_supported": []string{
			GrantTypeAuthorizationCode,
			GrantTypeClientCredentials,
			GrantTypeRefreshToken,
			GrantTypeDeviceCode,
		},
		"response_types_supported":              []string{"code"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post", "none"},
		"code_challenge_methods_supported":      []string{pkce.MethodS256},
	})
}
