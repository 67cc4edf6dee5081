package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"superca/internal/config"
	"superca/internal/domain"
)

const (
	ContextKeyTaxpayerID = "taxpayer_id"
	ContextKeyEmail      = "email"
)

// Claims are the token claims the engine cares about. Tokens are issued by
// the upstream auth layer; the engine only verifies them.
type Claims struct {
	TaxpayerID string `json:"taxpayer_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware returns Gin middleware that validates JWT tokens and injects
// the taxpayer identity.
func AuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := validateToken(cfg, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		taxpayerID, err := uuid.Parse(claims.TaxpayerID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "token carries no taxpayer identity"},
			})
			return
		}

		c.Set(ContextKeyTaxpayerID, taxpayerID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

func validateToken(cfg *config.JWTConfig, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// GetTaxpayerID extracts the taxpayer ID from the Gin context.
func GetTaxpayerID(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(ContextKeyTaxpayerID)
	if !exists {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return val.(uuid.UUID), nil
}

// GetEmail extracts the authenticated email from the Gin context.
func GetEmail(c *gin.Context) string {
	val, exists := c.Get(ContextKeyEmail)
	if !exists {
		return ""
	}
	return val.(string)
}
