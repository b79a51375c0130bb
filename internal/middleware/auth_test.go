package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newAuthRouter(auth Authenticator) *gin.Engine {
	router := gin.New()
	router.Use(SessionAuth(auth, true))
	router.GET("/test", func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	return router
}

func TestSessionAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		cookie         string
		setup          func(m *MockAuthenticator)
		expectedStatus int
		expectCleared  bool
	}{
		{
			name:           "Missing cookie",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "Valid session",
			cookie: "good",
			setup: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "good").Return(&models.User{ID: "u1", Username: "alice"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Expired session",
			cookie: "stale",
			setup: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "stale").Return(nil, apperror.Unauthorized("Session expired"))
			},
			expectedStatus: http.StatusUnauthorized,
			expectCleared:  true,
		},
		{
			name:   "Store failure",
			cookie: "any",
			setup: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "any").Return(nil, apperror.Internal(errors.New("db down")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockAuthenticator)
			if tt.setup != nil {
				tt.setup(auth)
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			newAuthRouter(auth).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, w.Body.String())
			}
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "db down")
			}

			cleared := false
			for _, c := range w.Result().Cookies() {
				if c.Name == SessionCookieName && c.MaxAge < 0 {
					cleared = true
				}
			}
			assert.Equal(t, tt.expectCleared, cleared)

			auth.AssertExpectations(t)
		})
	}
}

func TestSetSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	expires := time.Now().Add(30 * 24 * time.Hour)
	SetSessionCookie(c, "token", expires, true)

	cookies := w.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		cookie := cookies[0]
		assert.Equal(t, SessionCookieName, cookie.Name)
		assert.Equal(t, "token", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.WithinDuration(t, expires, cookie.Expires, time.Second)
	}
}

func TestGetUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUser(c)
	assert.False(t, ok)

	c.Set(AuthContextKey, &models.User{ID: "u1"})
	user, ok := GetUser(c)
	assert.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}
