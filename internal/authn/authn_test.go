package authn

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(v *Verifier, role Role) *gin.Engine {
	r := gin.New()
	r.GET("/protected", v.RequireRole(role), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	verifier := NewVerifier("test-secret")

	token, err := issuer.Issue(RoleAdmin)
	require.NoError(t, err)

	router := newRouter(verifier, RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyRejectsRoleMismatch(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	verifier := NewVerifier("test-secret")

	token, err := issuer.Issue(RoleSigner)
	require.NoError(t, err)

	router := newRouter(verifier, RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerifyRejectsMissingToken(t *testing.T) {
	verifier := NewVerifier("test-secret")
	router := newRouter(verifier, RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("secret-a", time.Hour)
	verifier := NewVerifier("secret-b")

	token, err := issuer.Issue(RoleAdmin)
	require.NoError(t, err)

	router := newRouter(verifier, RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAllowListMiddleware(t *testing.T) {
	allowList := NewAllowList([]string{"10.0.0.5"})
	r := gin.New()
	r.GET("/signer", allowList.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	allowed := httptest.NewRequest(http.MethodGet, "/signer", nil)
	allowed.RemoteAddr = "10.0.0.5:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, allowed)
	assert.Equal(t, http.StatusOK, rec.Code)

	denied := httptest.NewRequest(http.MethodGet, "/signer", nil)
	denied.RemoteAddr = "10.0.0.9:1234"
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, denied)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}
