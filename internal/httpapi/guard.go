package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbacadmin/internal/models"
	"rbacadmin/internal/rbac"
	"rbacadmin/internal/token"
)

const principalKey = "principal"

// Guard gates requests. Authenticate resolves the bearer token to a
// principal; the Require* middlewares add permission or role conditions on
// top. Each step failure terminates with its own error message so callers
// can tell an expired token from a stale session from a missing grant.
type Guard struct {
	db       *gorm.DB
	codec    *token.Codec
	resolver *rbac.Resolver
	log      *zap.Logger
}

func NewGuard(db *gorm.DB, codec *token.Codec, resolver *rbac.Resolver, log *zap.Logger) *Guard {
	return &Guard{db: db, codec: codec, resolver: resolver, log: log}
}

// Authenticate decodes the bearer token, verifies the session is still the
// account's most recent one, checks the account is active, and stores the
// principal in the request context.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))
		if raw == "" {
			abortFail(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		payload, err := g.codec.Verify(raw, token.KindAccess)
		if err != nil {
			abortFail(c, http.StatusUnauthorized, tokenMessage(err))
			return
		}

		var user models.User
		if err := g.db.First(&user, payload.UserID).Error; err != nil {
			abortFail(c, http.StatusUnauthorized, "user not found")
			return
		}

		// The token is only as fresh as the login that minted it. A newer
		// login (or an administrative reset) bumps last_login and strands
		// every earlier token here.
		if user.LastLogin == nil || user.LastLogin.Unix() != payload.LoginTime {
			abortFail(c, http.StatusUnauthorized, "session invalidated, please login again")
			return
		}

		if !user.IsActive {
			abortFail(c, http.StatusForbidden, "account disabled")
			return
		}

		c.Set(principalKey, &user)
		c.Next()
	}
}

// RequirePermission allows superusers and principals holding the
// (resource, action) permission.
func (g *Guard) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortFail(c, http.StatusInternalServerError, "missing authenticated principal")
			return
		}
		allowed, err := g.resolver.HasPermission(c.Request.Context(), user, resource, action)
		if err != nil {
			g.log.Error("permission check failed", zap.Error(err))
			abortFail(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if !allowed {
			abortFail(c, http.StatusForbidden,
				fmt.Sprintf("insufficient permission: requires %s:%s", resource, action))
			return
		}
		c.Next()
	}
}

// RequireRole allows superusers and principals with an active assignment
// to any of the given role codes.
func (g *Guard) RequireRole(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortFail(c, http.StatusInternalServerError, "missing authenticated principal")
			return
		}
		for _, code := range codes {
			allowed, err := g.resolver.HasRole(c.Request.Context(), user, code)
			if err != nil {
				g.log.Error("role check failed", zap.Error(err))
				abortFail(c, http.StatusInternalServerError, "internal server error")
				return
			}
			if allowed {
				c.Next()
				return
			}
		}
		abortFail(c, http.StatusForbidden,
			fmt.Sprintf("insufficient permission: requires one of roles %s", strings.Join(codes, ", ")))
	}
}

// RequireSuperuser allows only superusers.
func (g *Guard) RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsSuperuser {
			abortFail(c, http.StatusForbidden, "insufficient permission: requires superuser")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated principal set by Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(principalKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "token expired"
	case errors.Is(err, token.ErrTypeMismatch):
		return "token type mismatch"
	default:
		return "invalid token"
	}
}
