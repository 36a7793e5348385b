package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	appcart "github.com/storefront/backend/internal/application/cart"
)

// Auth context keys
const (
	AuthStateKey  = "auth_state"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// AuthConfig holds configuration for the bearer token middleware
type AuthConfig struct {
	// Secret verifies token signatures. Empty disables verification and
	// treats every bearer token as authenticated; the commerce platform
	// still rejects forged credentials on its side.
	Secret string
	// Issuer, when set, must match the token's iss claim
	Issuer string
	Logger *zap.Logger
}

// AuthState derives the caller's authentication state from the Authorization
// header. A missing, malformed, or unverifiable token yields the anonymous
// state rather than a 401; the cart is fully usable without an account.
func AuthState(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := appcart.AuthState{}

		header := c.GetHeader(AuthHeaderKey)
		if strings.HasPrefix(header, BearerPrefix) {
			token := strings.TrimPrefix(header, BearerPrefix)
			if token != "" {
				if userID, ok := verifyToken(cfg, token); ok {
					state = appcart.AuthState{
						Authenticated: true,
						UserID:        userID,
						Credential:    token,
					}
				} else if cfg.Logger != nil {
					cfg.Logger.Debug("Bearer token rejected, treating request as anonymous",
						zap.String("path", c.Request.URL.Path))
				}
			}
		}

		c.Set(AuthStateKey, state)
		c.Next()
	}
}

// GetAuthState returns the authentication state resolved by AuthState
func GetAuthState(c *gin.Context) appcart.AuthState {
	if v, ok := c.Get(AuthStateKey); ok {
		if state, ok := v.(appcart.AuthState); ok {
			return state
		}
	}
	return appcart.AuthState{}
}

func verifyToken(cfg AuthConfig, tokenString string) (string, bool) {
	if cfg.Secret == "" {
		// Unverified mode for development: pull the subject if the token
		// parses at all.
		claims := jwt.MapClaims{}
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return "", false
		}
		sub, _ := claims.GetSubject()
		return sub, true
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", false
	}

	sub, _ := claims.GetSubject()
	return sub, true
}
