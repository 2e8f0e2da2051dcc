package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is the gin context key the parsed claims are stored under.
const ContextKey = "claims"

// Require enforces bearer JWT tokens signed with HS256.
func Require(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, signingKey, issuer)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid bearer token"})
			return
		}
		c.Set(ContextKey, claims)
		c.Next()
	}
}

// Optional parses a bearer token when one is present but never rejects the
// request. Check-in endpoints use it: anonymous submitters are welcome,
// authenticated ones get prefill and a user_id on their record.
func Optional(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, signingKey, issuer); ok {
			c.Set(ContextKey, claims)
		}
		c.Next()
	}
}

// UserID extracts the authenticated user id from the context, if any.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return "", false
	}
	claims, ok := v.(Claims)
	if !ok || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

func parseBearer(c *gin.Context, signingKey, issuer string) (Claims, bool) {
	authz := c.GetHeader("Authorization")
	if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return Claims{}, false
	}
	tokenStr := strings.TrimSpace(authz[len("bearer "):])
	claims, err := Parse(tokenStr, signingKey, issuer)
	if err != nil {
		return Claims{}, false
	}
	return claims, true
}
