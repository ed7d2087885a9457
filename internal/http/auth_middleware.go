package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-connect/internal/domain"
	"campus-connect/internal/service"
)

const authUserKey = "auth_user"

// RequireAuth acepta como Bearer un access token JWT o un token de sesion y deja
// la cuenta en el contexto.
func RequireAuth(logger *zap.Logger, auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, codeUnauthorized, "authorization token is required", nil)
			return
		}
		user, _, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondServiceError(c, logger, "authenticate", err)
			return
		}
		c.Set(authUserKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// currentUser obtiene la cuenta autenticada desde el contexto.
func currentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

// mustUser se usa en rutas detras de RequireAuth.
func mustUser(c *gin.Context) (domain.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
	}
	return user, ok
}
