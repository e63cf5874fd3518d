package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"stokledger/internal/model"
	"stokledger/internal/repository"
	"stokledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Context keys set by the middleware and read by handlers.
const (
	CtxUserID     = "userID"
	CtxOrgID      = "orgID"
	CtxMemberRole = "memberRole"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// roleCacheEntry stores a member's cached role for an organization with TTL
type roleCacheEntry struct {
	role      string
	expiresAt time.Time
}

// AuthMiddleware validates JWTs and resolves the actor's membership role
// for the organization addressed by the request.
type AuthMiddleware struct {
	memberships repository.MembershipRepository
	secret      []byte
	roleCache   sync.Map // "orgID:userID" -> roleCacheEntry
	cacheTTL    time.Duration
}

func NewAuthMiddleware(memberships repository.MembershipRepository, secret []byte) *AuthMiddleware {
	return &AuthMiddleware{
		memberships: memberships,
		secret:      secret,
		cacheTTL:    5 * time.Minute,
	}
}

// RequireAuth validates the JWT (cookie first, Authorization header as
// fallback) and stores the actor id in the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
			return
		}

		c.Set(CtxUserID, userID)
		c.Next()
	}
}

// RequireMember resolves the actor's role in the organization from the
// :orgId path parameter and rejects anyone below minRole. Must run after
// RequireAuth.
func (m *AuthMiddleware) RequireMember(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Value(CtxUserID).(uuid.UUID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		orgID, err := uuid.Parse(c.Param("orgId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization id"))
			return
		}

		role, err := m.resolveRole(c, orgID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Not a member of this organization"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify membership"))
			return
		}

		if !model.MeetsMinimum(role, minRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient role"))
			return
		}

		c.Set(CtxOrgID, orgID)
		c.Set(CtxMemberRole, role)
		c.Next()
	}
}

func (m *AuthMiddleware) resolveRole(c *gin.Context, orgID, userID uuid.UUID) (string, error) {
	key := orgID.String() + ":" + userID.String()
	if entry, ok := m.roleCache.Load(key); ok {
		cached := entry.(roleCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.role, nil
		}
	}

	role, err := m.memberships.FindRole(c.Request.Context(), orgID, userID)
	if err != nil {
		return "", err
	}

	m.roleCache.Store(key, roleCacheEntry{
		role:      role,
		expiresAt: time.Now().Add(m.cacheTTL),
	})
	return role, nil
}

// InvalidateRole removes a cached membership role after it changed.
func (m *AuthMiddleware) InvalidateRole(orgID, userID uuid.UUID) {
	m.roleCache.Delete(orgID.String() + ":" + userID.String())
}
