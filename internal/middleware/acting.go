package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// ActingKey holds the resolved services.ActingContext in the gin context.
const ActingKey = "acting"

// ActingResolver is the part of the consultant service the middleware needs.
type ActingResolver interface {
	ResolveActingContext(identity services.Identity, actingClientID string) (services.ActingContext, error)
}

// ActingMiddleware resolves whose data the request operates on. It must run
// after AuthMiddleware. The acting cookie is only read for consultants; a
// cookie that is malformed, expired or signed for another consultant is
// ignored and the request runs on the caller's own data.
func ActingMiddleware(resolver ActingResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		var clientID string
		if identity.Role == models.RoleConsultant {
			if raw, err := c.Cookie(config.Get().ActingCookie); err == nil && raw != "" {
				if id, err := ParseActingToken(raw, identity.ID); err == nil {
					clientID = id
				}
			}
		}

		acting, err := resolver.ResolveActingContext(identity, clientID)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(ActingKey, acting)
		c.Next()
	}
}

// GetIdentity returns the identity set by AuthMiddleware.
func GetIdentity(c *gin.Context) (services.Identity, bool) {
	id := c.GetString(UserIDKey)
	if id == "" {
		return services.Identity{}, false
	}
	role, _ := c.Get(RoleKey)
	r, _ := role.(models.Role)
	return services.Identity{ID: id, Email: c.GetString(EmailKey), Role: r}, true
}

// GetActing returns the context set by ActingMiddleware.
func GetActing(c *gin.Context) (services.ActingContext, bool) {
	v, ok := c.Get(ActingKey)
	if !ok {
		return services.ActingContext{}, false
	}
	acting, ok := v.(services.ActingContext)
	return acting, ok
}
