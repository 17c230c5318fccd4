package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionUserID   = "user_id"
	SessionUsername = "username"
)

// RequireAuth is a middleware that requires the user to be logged in
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserID)

		if userID == nil {
			// Redirect to login with return URL
			next := url.QueryEscape(c.Request.URL.String())
			c.Redirect(http.StatusFound, "/login?next="+next)
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// CurrentUserID returns the session-bound user id, or "" when the
// request carries no authenticated principal.
func CurrentUserID(c *gin.Context) string {
	session := sessions.Default(c)
	if userID, ok := session.Get(SessionUserID).(string); ok {
		return userID
	}
	return ""
}
