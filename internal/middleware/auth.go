package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baasbox-client/internal/auth"
	"baasbox-client/internal/store"
)

const (
	HeaderSession = "X-BB-SESSION"
	HeaderAppCode = "X-BAASBOX-APPCODE"

	usernameContextKey = "username"
	tokenIDContextKey  = "tokenID"
)

func UsernameFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(usernameContextKey)
	if !ok {
		return "", false
	}
	value, ok := v.(string)
	return value, ok && value != ""
}

func TokenIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(tokenIDContextKey)
	if !ok {
		return "", false
	}
	value, ok := v.(string)
	return value, ok && value != ""
}

func RequireAppCode(appCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(HeaderAppCode) != appCode {
			AbortWithError(c, http.StatusUnauthorized, "Invalid App Code", CodeAppCodeInvalid)
			return
		}
		c.Next()
	}
}

// RequireSession accepts a request only when its X-BB-SESSION token verifies,
// is still live in the store, and belongs to an active account.
func RequireSession(st *store.Store, cfg auth.TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderSession)
		if token == "" {
			AbortWithError(c, http.StatusUnauthorized, "Authentication info not valid or not provided", CodeAuthInvalid)
			return
		}

		claims, err := auth.VerifyToken(token, cfg)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "Authentication info not valid or not provided", CodeAuthInvalid)
			return
		}

		username, ok := st.SessionUser(claims.ID)
		if !ok || username != claims.Username {
			AbortWithError(c, http.StatusUnauthorized, "Session expired", CodeSessionExpired)
			return
		}

		acc, ok := st.GetAccount(username)
		if !ok || !acc.Active() {
			AbortWithError(c, http.StatusUnauthorized, "User is not active", CodeAuthInvalid)
			return
		}

		c.Set(usernameContextKey, username)
		c.Set(tokenIDContextKey, claims.ID)
		c.Next()
	}
}
