package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accountsvc/internal/pkg/logger"
	"accountsvc/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRevocations struct {
	revoked map[string]bool
}

func (s *stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], nil
}

func newTestRouter(codec *token.Service, revocations RevocationChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(codec, revocations, logger.NewNop()))

	r.GET("/open", func(c *gin.Context) {
		_, authed := c.Get(CtxUserID)
		c.JSON(http.StatusOK, gin.H{"authenticated": authed})
	})

	protected := r.Group("/")
	protected.Use(RequireAuth())
	protected.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(CtxUserID)})
	})

	return r
}

func TestAuthenticate_ValidToken(t *testing.T) {
	codec := token.New("test-secret-123")
	router := newTestRouter(codec, &stubRevocations{revoked: map[string]bool{}})

	raw, err := codec.Issue(42, token.KindAccess, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestAuthenticate_NoHeaderIsAnonymous(t *testing.T) {
	codec := token.New("secret")
	router := newTestRouter(codec, &stubRevocations{revoked: map[string]bool{}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/open", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	// Same anonymous request against a protected route is rejected.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_REQUIRED")
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	codec := token.New("secret")
	router := newTestRouter(codec, &stubRevocations{revoked: map[string]bool{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	codec := token.New("secret")
	router := newTestRouter(codec, &stubRevocations{revoked: map[string]bool{}})

	raw, err := codec.Issue(42, token.KindAccess, -time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	codec := token.New("secret")

	raw, err := codec.Issue(42, token.KindAccess, time.Hour)
	require.NoError(t, err)
	claims, err := codec.Decode(raw)
	require.NoError(t, err)

	// Not yet expired, but present in the revocation store: must fail.
	router := newTestRouter(codec, &stubRevocations{revoked: map[string]bool{claims.ID: true}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
}

func TestAuthenticate_WrongScheme(t *testing.T) {
	codec := token.New("secret")
	router := newTestRouter(codec, &stubRevocations{revoked: map[string]bool{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Basic dGVzdA==")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
}
