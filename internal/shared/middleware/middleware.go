package middleware

import (
	"net/http"
	"strings"
	"time"

	"campusbook/internal/shared/config"
	"campusbook/internal/shared/utils/response"
	"campusbook/internal/users"
	"campusbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in and out
const HeaderRequestID = "X-Request-ID"

// Claims stored on the gin context by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
)

// JWTAuthWithConfig validates HS256 access tokens issued by the campus identity provider and
// exposes user_id and role to handlers.
func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	secret := []byte(cfg.JWT.Secret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "authorization header format must be Bearer {token}")
			return
		}

		claims, err := parseAccessToken(parts[1], secret)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			unauthorized(c, "token has no user_id")
			return
		}
		role, _ := claims["role"].(string)

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, strings.ToUpper(role))
		c.Next()
	}
}

type authError string

func (e authError) Error() string { return string(e) }

func parseAccessToken(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, authError("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, authError("invalid token claims")
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
		return nil, authError("invalid token type")
	}
	return claims, nil
}

func unauthorized(c *gin.Context, reason string) {
	logger.GetDefault().LogAuthFailure(c.Request.Context(), reason, c.ClientIP())
	response.RespondJSON(c, "error", http.StatusUnauthorized, reason, nil, nil)
	c.Abort()
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(string(users.RoleAdmin))
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		for _, required := range requiredRoles {
			if strings.EqualFold(role, required) {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// RequestLogger tags each request with an id (taken from X-Request-ID or generated) and logs it
// with its latency once the handler chain returns. Authenticated requests also carry user_id.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		c.Next()

		reqLog := log.WithRequestID(requestID)
		if userID := c.GetString(ContextUserID); userID != "" {
			reqLog = reqLog.WithUserID(userID)
		}
		if len(c.Errors) > 0 {
			reqLog.LogHTTPError(c, c.Errors.Last(), c.Writer.Status())
			return
		}
		reqLog.LogHTTPRequest(c, time.Since(start))
	}
}
