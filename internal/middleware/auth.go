package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

const (
	issuer = "financas-api"

	// Context keys set by AuthMiddleware.
	UserIDKey = "userID"
	EmailKey  = "email"
	RoleKey   = "role"

	tokenTypeSession = "session"
	tokenTypeActing  = "acting"
)

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// JWTClaims represents the claims in the session JWT
type JWTClaims struct {
	UserID    string      `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// ActingClaims is the payload of the acting cookie. It is bound to the
// consultant that obtained it so it cannot be replayed by another consultant.
type ActingClaims struct {
	ClientID     string `json:"client_id"`
	ConsultantID string `json:"consultant_user_id"`
	TokenType    string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateToken generates a session JWT for a user.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(config.Get().JWTExpirationDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// ParseToken validates a session JWT and returns its claims.
func ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if err := parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeSession {
		return nil, fmt.Errorf("token is not a session token")
	}
	return claims, nil
}

// GenerateActingToken signs the acting cookie value for a consultant and client.
func GenerateActingToken(consultantUserID, clientID string, maxAge time.Duration) (string, error) {
	now := time.Now()
	claims := &ActingClaims{
		ClientID:     clientID,
		ConsultantID: consultantUserID,
		TokenType:    tokenTypeActing,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(maxAge)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   consultantUserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// ParseActingToken returns the client id carried by an acting cookie value.
// It fails if the token is invalid, expired or was issued to another consultant.
func ParseActingToken(tokenString, consultantUserID string) (string, error) {
	claims := &ActingClaims{}
	if err := parse(tokenString, claims); err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeActing {
		return "", fmt.Errorf("token is not an acting token")
	}
	if claims.ConsultantID != consultantUserID {
		return "", fmt.Errorf("acting token issued to another consultant")
	}
	return claims.ClientID, nil
}

func parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// tokenFromRequest reads the session cookie, falling back to a Bearer header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(config.Get().SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// AuthMiddleware verifies the session token and sets the identity in the context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects identities whose role is not one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.ErrForbidden)
	}
}

func abortWithError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, gin.H{
		"error": gin.H{
			"code":    err.Code,
			"message": err.Message,
		},
	})
}
