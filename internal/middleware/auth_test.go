package middleware

import (
	"lingua_backend/internal/model"
	"lingua_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	user := &model.User{Email: "mw@example.com"}
	user.ID = "user-1"

	valid, err := util.GenerateJWT(user, secret, time.Hour)
	require.NoError(t, err)
	expired, err := util.GenerateJWT(user, secret, -time.Minute)
	require.NoError(t, err)
	foreign, err := util.GenerateJWT(user, "another-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		code   int
	}{
		{"bearer header", "Bearer " + valid, "", http.StatusOK},
		{"query token", "", valid, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, "", http.StatusUnauthorized},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/me"
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "user-1", w.Body.String())
			}
		})
	}
}
