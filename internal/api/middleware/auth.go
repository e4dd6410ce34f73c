package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
)

const (
	contextUserIDKey = "auth_user_id"
	contextRoleKey   = "auth_role"
)

// Auth validates the Bearer token and stores the caller's id and role on the
// request context. Tokens are issued by the identity service; this middleware
// only consumes them.
func Auth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		roleStr, _ := claims["role"].(string)
		role := domain.Role(roleStr)
		if !role.IsValid() {
			logger.Warn("Token carries unknown role", zap.String("role", roleStr))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token role"})
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextRoleKey, role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := GetUserFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}

// GetUserFromContext returns the authenticated caller's id and role
func GetUserFromContext(c *gin.Context) (uuid.UUID, domain.Role, bool) {
	idVal, ok := c.Get(contextUserIDKey)
	if !ok {
		return uuid.Nil, "", false
	}
	roleVal, ok := c.Get(contextRoleKey)
	if !ok {
		return uuid.Nil, "", false
	}

	userID, ok := idVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, ok := roleVal.(domain.Role)
	if !ok {
		return uuid.Nil, "", false
	}

	return userID, role, true
}
