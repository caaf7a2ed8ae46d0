package auth

import (
	"net/http"
	"strings"

	"crono/internal/response"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Middleware authenticates the request from a Bearer token or, failing that,
// the session cookie, and stores the Actor in the gin context.
func Middleware(secret []byte, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(cookieName)
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_SESSION",
				Message: "Authentication required",
			})
			return
		}

		actor, err := ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Invalid or expired session",
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func RequireStudent() gin.HandlerFunc {
	return requireActor(Actor.IsStudent, "Student session required")
}

func RequireAdmin() gin.HandlerFunc {
	return requireActor(Actor.IsAdmin, "Admin session required")
}

func requireActor(allowed func(Actor) bool, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := FromContext(c)
		if !ok || !allowed(actor) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: msg,
			})
			return
		}
		c.Next()
	}
}

func FromContext(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
