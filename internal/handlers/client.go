package handlers

import (
	"net/http"

	"github.com/go-oauthd/oauthd/internal/services"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clientService *services.ClientService
}

func NewClientHandler(cs *services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: cs}
}

// RegisterClient handles POST /clients. The plaintext client_secret for
// confidential clients appears in this response and nowhere else.
func (h *ClientHandler) RegisterClient(c *gin.Context) {
	var req struct {
		ClientName   string   `json:"client_name"`
		ClientType   string   `json:"client_type"`
		RedirectURIs []string `json:"redirect_uris"`
		Scopes       string   `json:"scopes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "request body must be valid JSON",
		})
		return
	}

	result, err := h.clientService.Register(
		c.Request.Context(),
		req.ClientName,
		req.ClientType,
		req.RedirectURIs,
		req.Scopes,
	)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	body := gin.H{
		"client_id":     result.ClientID,
		"client_name":   result.ClientName,
		"client_type":   result.ClientType,
		"redirect_uris": result.RedirectURIs,
		"scopes":        result.Scopes,
	}
	if result.ClientSecret != "" {
		body["client_secret"] = result.ClientSecret
	}
	c.JSON(http.StatusCreated, body)
}
