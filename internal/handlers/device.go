package handlers

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-oauthd/oauthd/internal/config"
	"github.com/go-oauthd/oauthd/internal/middleware"
	"github.com/go-oauthd/oauthd/internal/services"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
	config        *config.Config
}

func NewDeviceHandler(ds *services.DeviceService, cfg *config.Config) *DeviceHandler {
	return &DeviceHandler{deviceService: ds, config: cfg}
}

// DeviceCodeRequest handles POST /device/authorize (RFC 8628 §3.1-3.2).
// This is called by the device to start the flow.
func (h *DeviceHandler) DeviceCodeRequest(c *gin.Context) {
	clientID := c.PostForm("client_id")
	scope := c.PostForm("scope")

	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "client_id is required",
		})
		return
	}

	dc, err := h.deviceService.GenerateDeviceCode(c.Request.Context(), clientID, scope)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_code":               dc.DeviceCode,
		"user_code":                 dc.UserCode,
		"verification_uri":          dc.VerificationURI,
		"verification_uri_complete": dc.VerificationURI + "?user_code=" + dc.UserCode,
		"expires_in":                int(time.Until(dc.ExpiresAt).Seconds()),
		"interval":                  dc.Interval,
	})
}

// DevicePage renders the user code entry form (GET /device).
func (h *DeviceHandler) DevicePage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_ = devicePageTmpl.Execute(c.Writer, gin.H{
		"UserCode": c.Query("user_code"),
		"Error":    c.Query("error"),
	})
}

// DeviceApprove handles POST /device/approve: the logged-in user
// confirms the code shown on their device.
func (h *DeviceHandler) DeviceApprove(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == "" {
		c.Redirect(http.StatusFound, "/login?next=/device")
		return
	}

	userCode := c.PostForm("user_code")
	if userCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "user_code is required",
		})
		return
	}

	if err := h.deviceService.Approve(c.Request.Context(), userCode, userID); err != nil {
		writeOAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

var devicePageTmpl = template.Must(template.New("device").Parse(`<!DOCTYPE html>
<html>
<head><title>Device Authorization</title></head>
<body>
  <h1>Device Authorization</h1>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <p>Enter the code displayed on your device:</p>
  <form method="POST" action="/device/approve">
    <input type="text" name="user_code" value="{{.UserCode}}" autofocus autocomplete="off">
    <button type="submit">Approve</button>
  </form>
</body>
</html>
`))
