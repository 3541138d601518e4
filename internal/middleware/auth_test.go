package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "test-secret"
	testAdminRole = "leads:admin"
)

func init() {
	logging.InitLogger()
	gin.SetMode(gin.TestMode)
}

func createTestJWT(t *testing.T, method jwt.SigningMethod, secret string, roles []string, expiresIn time.Duration) string {
	t.Helper()
	claims := models.JWTClaims{
		Name:  "Operator",
		Email: "operator@agency.com",
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	router := gin.New()
	router.GET("/test", AuthMiddleware(testSecret), RequireAdmin(testAdminRole), func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subject": claims.Subject})
	})
	return router
}

func doAuthRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Success(t *testing.T) {
	token := createTestJWT(t, jwt.SigningMethodHS256, testSecret, []string{testAdminRole}, time.Hour)

	w := doAuthRequest(newAuthRouter(), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-123")
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header func(t *testing.T) string
		want   int
	}{
		{"no header", func(*testing.T) string { return "" }, http.StatusUnauthorized},
		{"wrong scheme", func(*testing.T) string { return "Basic abc" }, http.StatusUnauthorized},
		{"empty token", func(*testing.T) string { return "Bearer " }, http.StatusUnauthorized},
		{"garbage token", func(*testing.T) string { return "Bearer not.a.jwt" }, http.StatusUnauthorized},
		{"wrong secret", func(t *testing.T) string {
			return "Bearer " + createTestJWT(t, jwt.SigningMethodHS256, "other", []string{testAdminRole}, time.Hour)
		}, http.StatusUnauthorized},
		{"wrong algorithm", func(t *testing.T) string {
			return "Bearer " + createTestJWT(t, jwt.SigningMethodHS512, testSecret, []string{testAdminRole}, time.Hour)
		}, http.StatusUnauthorized},
		{"expired", func(t *testing.T) string {
			return "Bearer " + createTestJWT(t, jwt.SigningMethodHS256, testSecret, []string{testAdminRole}, -time.Minute)
		}, http.StatusUnauthorized},
		{"missing role", func(t *testing.T) string {
			return "Bearer " + createTestJWT(t, jwt.SigningMethodHS256, testSecret, []string{"viewer"}, time.Hour)
		}, http.StatusForbidden},
	}

	router := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuthRequest(router, tt.header(t))
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestAuthMiddleware_EmptySecretRejectsEverything(t *testing.T) {
	router := gin.New()
	router.GET("/test", AuthMiddleware(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	token := createTestJWT(t, jwt.SigningMethodHS256, testSecret, []string{testAdminRole}, time.Hour)
	w := doAuthRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin_NoClaims(t *testing.T) {
	router := gin.New()
	router.GET("/test", RequireAdmin(testAdminRole), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doAuthRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetClaims(c)
	assert.ErrorIs(t, err, ErrClaimsNotFound)

	c.Set(claimsKey, "not claims")
	_, err = GetClaims(c)
	assert.Error(t, err)

	c.Set(claimsKey, &models.JWTClaims{Roles: []string{"x"}})
	claims, err := GetClaims(c)
	require.NoError(t, err)
	assert.True(t, claims.HasRole("x"))
}
