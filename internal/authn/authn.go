// Package authn implements the JWT role check and IP allow-list gin
// middleware named in spec.md §6/§7: Public/Admin JWT roles for the user
// endpoints, and a signer-endpoint IP allow-list independent of the
// token (§9 open question (b): the stricter separation wins).
package authn

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Role is one of the three roles spec.md §6 assigns to endpoints.
type Role string

const (
	RolePublic Role = "public"
	RoleAdmin  Role = "admin"
	RoleSigner Role = "signer"
)

// Claims is the JWT payload this service issues and verifies.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints tokens; used by tests and any admin tooling that needs to
// hand out a token without a separate auth service.
type Issuer struct {
	secret     []byte
	expiration time.Duration
}

func NewIssuer(secret string, expiration time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiration: expiration}
}

func (i *Issuer) Issue(role Role) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verifier checks bearer tokens against secret and enforces a role.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) parse(header string) (*Claims, error) {
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header {
		return nil, jwt.ErrTokenMalformed
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireRole is gin middleware enforcing that the bearer token is valid
// and carries exactly role. 401 on missing/invalid token, 403 on role
// mismatch (spec.md §8 scenario 4).
func (v *Verifier) RequireRole(role Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := v.parse(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if claims.Role != role {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Set("role", claims.Role)
		c.Next()
	}
}

// AllowList is gin middleware restricting a route to a fixed set of
// client IPs, independent of JWT validity (§6's Signer row, §8 scenario 4:
// "POST /set from non-allow-listed IP -> 401 even with a valid Signer
// token").
type AllowList struct {
	allowed map[string]struct{}
}

func NewAllowList(ips []string) *AllowList {
	m := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		m[ip] = struct{}{}
	}
	return &AllowList{allowed: m}
}

func (a *AllowList) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.allowed[c.ClientIP()]; !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
