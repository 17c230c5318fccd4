package handlers

import (
	"errors"
	"net/http"

	"github.com/go-oauthd/oauthd/internal/services"

	"github.com/gin-gonic/gin"
)

// writeOAuthError is the single place grant-engine errors become HTTP.
// Every client-fault kind maps to 400 with the RFC 6749 error body;
// store faults and anything unrecognized map to 500. Redirect-style
// outcomes (login_required) are handled by the callers that can
// redirect, before reaching here.
func writeOAuthError(c *gin.Context, err error) {
	var oauthErr *services.Error
	if !errors.As(err, &oauthErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": err.Error(),
		})
		return
	}

	status := http.StatusBadRequest
	if oauthErr.Kind == services.KindStoreFault {
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": oauthErr.Code}
	if oauthErr.Detail != "" {
		body["error_description"] = oauthErr.Detail
	}
	c.JSON(status, body)
}
