package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(testSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		role, _ := c.Get(ContextUserRole)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	r.GET("/me", handlers...)
	return r
}

func doRequest(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	user := models.User{ID: 42, Username: "vet", Role: models.RoleExpert}
	token, err := GenerateToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	otherToken, err := GenerateToken(user, "other-secret", time.Hour)
	require.NoError(t, err)

	expired, err := GenerateToken(user, testSecret, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherToken, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}

	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := doRequest(r, "Bearer "+token)
	assert.JSONEq(t, `{"id":42,"role":"EXPERT"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter(models.RoleExpert, models.RoleAdmin)

	member, err := GenerateToken(models.User{ID: 1, Role: models.RoleMember}, testSecret, time.Hour)
	require.NoError(t, err)
	admin, err := GenerateToken(models.User{ID: 2, Role: models.RoleAdmin}, testSecret, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doRequest(r, "Bearer "+member).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "Bearer "+admin).Code)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken(models.User{ID: 1}, "", time.Hour)
	assert.Error(t, err)
}
