package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/scholaris/cbt-backend/internal/response"
)

// ContextKeyStaffClaims is the Gin context key for staff JWT claims.
const ContextKeyStaffClaims = "staff_claims"

// StaffClaims are the claims of a staff token minted by the account system.
// This service only validates; it never issues tokens.
type StaffClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// RequireStaffJWT validates a staff bearer token from the Authorization
// header against the shared signing secret.
func RequireStaffJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := validateStaffToken(parts[1], secret)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyStaffClaims, claims)
		c.Next()
	}
}

// GetStaffClaims retrieves the staff claims from the Gin context.
func GetStaffClaims(c *gin.Context) *StaffClaims {
	val, exists := c.Get(ContextKeyStaffClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*StaffClaims)
	if !ok {
		return nil
	}
	return claims
}

func validateStaffToken(tokenStr, secret string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
