package middleware

import (
	"strings"

	"friendbox/errs"
	"friendbox/utils"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

var (
	errMissingHeader = errs.New(errs.KindUnauthorized, "missing authorization header", nil)
	errHeaderFormat  = errs.New(errs.KindUnauthorized, "invalid authorization header format", nil)
	errBadToken      = errs.New(errs.KindUnauthorized, "invalid or expired token", nil)
)

// AuthMiddleware requires a valid bearer token and stores its subject on the
// request context for GetUserID.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *utils.Claims
			if claims, err = tokens.ParseToken(raw); err == nil {
				c.Set(userIDKey, claims.UserID)
				c.Next()
				return
			}
			err = errBadToken
		}

		utils.Unauthorized(c, err.(*errs.BaseError).Message)
		c.Abort()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", errHeaderFormat
	}
	return token, nil
}

// GetUserID returns the authenticated user id, or "" outside AuthMiddleware.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
