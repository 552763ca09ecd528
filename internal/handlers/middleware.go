package handlers

import (
	"net/http"
	"strings"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	contextActor     = "actor"
	contextPrincipal = "principal"
	contextToken     = "token"
	contextTeacher   = "teacher"
)

func actorFrom(c *gin.Context) (services.Actor, bool) {
	value, ok := c.Get(contextActor)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := value.(services.Actor)
	return actor, ok
}

// currentActor returns the signed-in actor; the zero Actor outside AuthMiddleware.
func currentActor(c *gin.Context) services.Actor {
	actor, _ := actorFrom(c)
	return actor
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// Browsers cannot set headers on websocket upgrades.
	return c.Query("access_token")
}

// AuthMiddleware verifies the bearer token and resolves the principal to its
// teacher record. Principals without one get an Actor with no role.
func AuthMiddleware(provider auth.Provider, teachers live.Observable[accessors.Result[models.Teacher]], logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Authorization token required"})
			return
		}

		principal, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			if services.IsUnauthorized(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
				return
			}
			logger.LogError(err, "Token verification failed", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
			return
		}

		actor := services.Actor{UID: principal.UID}
		if teacher := auth.ResolveCurrentUser(principal, teachers.Current().Data); teacher != nil {
			actor.Role = teacher.RoleOrDefault()
			c.Set(contextTeacher, teacher)
		}

		c.Set(contextToken, token)
		c.Set(contextPrincipal, principal)
		c.Set(contextActor, actor)
		c.Next()
	}
}

// RequireManagementRole lets only director-level staff through. While the
// teachers are still loading the role is unknown and the request gets 503.
func RequireManagementRole(teachers live.Observable[accessors.Result[models.Teacher]]) gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentActor(c).CanManage() {
			c.Next()
			return
		}
		if teachers.Current().Data == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Message: loadingMessage})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: "management role required",
		})
	}
}
