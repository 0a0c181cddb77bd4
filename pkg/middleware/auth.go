package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MohamedAshiq09/authentify/pkg/auth"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
)

// BearerToken extracts the bearer token from the Authorization header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireUser validates an end-user bearer token and stores its identity
// on the context. SDK client bootstrap tokens are rejected here: they carry
// no user and must not impersonate one.
func RequireUser(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, errs.Unauthorized, "authentication required")
			return
		}

		claims, err := auth.ValidateJWT(token, jwtSecret)
		if err != nil {
			kind := errs.InvalidToken
			if err == auth.ErrExpiredJWT {
				kind = errs.Expired
			}
			abortUnauthorized(c, kind, "invalid or expired token")
			return
		}

		if claims.TokenType != auth.TokenTypeUser || claims.UserID == "" {
			abortUnauthorized(c, errs.Unauthorized, "user token required")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("lineage_id", claims.LineageID)
		c.Next()
	}
}

// RequireClient validates an SDK client bootstrap token
func RequireClient(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, errs.Unauthorized, "authentication required")
			return
		}

		claims, err := auth.ValidateJWT(token, jwtSecret)
		if err != nil {
			kind := errs.InvalidToken
			if err == auth.ErrExpiredJWT {
				kind = errs.Expired
			}
			abortUnauthorized(c, kind, "invalid or expired token")
			return
		}

		if claims.TokenType != auth.TokenTypeClient || claims.ClientID == "" {
			abortUnauthorized(c, errs.Unauthorized, "client token required")
			return
		}

		c.Set("client_id", claims.ClientID)
		c.Set("client_scopes", claims.Scopes)
		c.Next()
	}
}

// RequireServiceToken guards operator endpoints with the shared
// SERVICE_TOKEN. User and client bearer tokens do not open these routes.
func RequireServiceToken(serviceToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Service-Token")
		if serviceToken == "" || presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(serviceToken)) != 1 {
			abortUnauthorized(c, errs.Unauthorized, "service token required")
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, kind errs.Kind, message string) {
	status := kind.HTTPStatus()
	if status == 0 {
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": message, "code": kind.Code()})
	c.Abort()
}
