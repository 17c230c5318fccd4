package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/go-oauthd/oauthd/internal/middleware"
	"github.com/go-oauthd/oauthd/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
}

func NewAuthHandler(us *services.UserService) *AuthHandler {
	return &AuthHandler{userService: us}
}

// LoginPage renders the login form (GET /login). The next parameter
// carries the URL to replay after authentication, typically a suspended
// /authorize request.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_ = loginPageTmpl.Execute(c.Writer, gin.H{
		"Next":  c.Query("next"),
		"Error": c.Query("error"),
	})
}

// Login handles POST /login: password authentication plus session bind.
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := c.PostForm("next")

	user, err := h.userService.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		target := "/login?error=invalid_credentials"
		if next != "" {
			target += "&next=" + next
		}
		c.Redirect(http.StatusFound, target)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, user.ID)
	session.Set(middleware.SessionUsername, user.Username)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "failed to save session",
		})
		return
	}

	// Only replay local URLs; an absolute next would be an open redirect.
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

// Logout clears the session (POST /logout).
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/login")
}

var loginPageTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign In</title></head>
<body>
  <h1>Sign In</h1>
  {{if .Error}}<p class="error">Invalid username or password</p>{{end}}
  <form method="POST" action="/login">
    <input type="hidden" name="next" value="{{.Next}}">
    <label>Username <input type="text" name="username" autofocus></label>
    <label>Password <input type="password" name="password"></label>
    <button type="submit">Sign in</button>
  </form>
</body>
</html>
`))
