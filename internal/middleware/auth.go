package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

const (
	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "session_id"

	AuthContextKey = "user"
)

// Authenticator resolves a session token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// SessionAuth rejects requests without a live session before any handler runs
func SessionAuth(auth Authenticator, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			abortUnauthorized(c)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperror.Is(err, apperror.KindUnauthorized) {
				ClearSessionCookie(c, secureCookie)
				abortUnauthorized(c)
				return
			}
			c.AbortWithStatusJSON(apperror.HTTPStatus(err), gin.H{
				"success": false,
				"message": apperror.Message(err),
			})
			return
		}

		c.Set(AuthContextKey, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "Unauthorized",
	})
}

// SetSessionCookie issues the session cookie
func SetSessionCookie(c *gin.Context, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client
func ClearSessionCookie(c *gin.Context, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetUser retrieves the authenticated user from the context
func GetUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(AuthContextKey)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	return user, ok
}
