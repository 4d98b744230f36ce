package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/config"
	"github.com/ArowuTest/bridgetunes-raffle/pkg/jwt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Context keys set by the middleware
const (
	KeyRequestID = "RequestID"
	KeyAddress   = "address"
	KeyRole      = "role"
)

// JWTAuthMiddleware is a middleware for JWT authentication. The caller
// address and role from a valid token are stored in the context.
func JWTAuthMiddleware(tokens *jwt.TokenService) gin.HandlerFunc {
	const bearerSchema = "Bearer "
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := tokens.Validate(strings.TrimPrefix(authHeader, bearerSchema))
		if err != nil {
			log.WithField("requestId", c.GetString(KeyRequestID)).WithError(err).Debug("token rejected")
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(KeyAddress, claims.Address())
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose token does not carry role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(KeyRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requires role " + role})
			return
		}
		c.Next()
	}
}

// Caller returns the address the authenticated caller acts as
func Caller(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(KeyAddress)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

// CORSMiddleware is a middleware for CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", strings.Join(cfg.Server.AllowedHosts, ","))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware is a middleware for adding a request ID to the context
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(KeyRequestID, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggerMiddleware is a middleware for logging requests
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := log.WithFields(log.Fields{
			"requestId": c.GetString(KeyRequestID),
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"clientIp":  c.ClientIP(),
		})
		if addr, ok := Caller(c); ok {
			entry = entry.WithField("caller", addr.Hex())
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
