package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"thumbforge/internal/config"
	"thumbforge/internal/models"
	"thumbforge/internal/repository"
	"thumbforge/internal/security"
)

const (
	// CurrentUserKey holds the resolved models.User in the gin context.
	CurrentUserKey = "current_user"

	bearerPrefix = "Bearer "
	tokenPrefix  = "Token "
)

// Auth resolves the request credential to an account. Two bearer kinds
// are accepted: "Bearer <jwt>" and "Token <static api token>".
func Auth(cfg *config.AppConfig, users *repository.UserRepository, tokens *repository.TokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		var (
			userID string
			err    error
		)
		switch {
		case strings.HasPrefix(header, bearerPrefix):
			userID, err = resolveJWT(strings.TrimPrefix(header, bearerPrefix), cfg.Security.JWTSecret)
		case strings.HasPrefix(header, tokenPrefix):
			userID, err = resolveAPIToken(c, tokens, strings.TrimPrefix(header, tokenPrefix))
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

func resolveJWT(tokenStr, secret string) (string, error) {
	claims, err := security.ParseAccessToken(tokenStr, secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func resolveAPIToken(c *gin.Context, tokens *repository.TokenRepository, plaintext string) (string, error) {
	token, err := tokens.GetByHash(c.Request.Context(), security.HashAPIToken(plaintext))
	if err != nil {
		return "", err
	}
	return token.UserID, nil
}

// CurrentUser extracts the user the Auth middleware resolved.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(CurrentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
