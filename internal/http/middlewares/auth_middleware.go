package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/quicknotes/internal/actorctx"
	"github.com/geocoder89/quicknotes/internal/apperr"
	"github.com/gin-gonic/gin"
)

// TokenVerifier resolves a bearer token to the owner id it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth is the gate in front of every note route. Nothing behind it
// runs unless the request carries a valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortApp(c, http.StatusUnauthorized, apperr.ErrNoToken)
			return
		}

		ownerID, err := m.tokens.VerifyToken(raw)
		if err != nil || ownerID == "" {
			abortApp(c, http.StatusUnauthorized, apperr.ErrInvalidToken)
			return
		}

		c.Set(CtxOwnerID, ownerID)
		c.Request = c.Request.WithContext(actorctx.WithOwnerID(c.Request.Context(), ownerID))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func OwnerIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxOwnerID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
