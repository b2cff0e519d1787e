// utils/auth.go
package utils

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Principal types carried in the token "type" claim.
const (
	TypeCustomer = "customer"
	TypePartner  = "partner"
	TypeAdmin    = "admin"
	TypeStaff    = "staff"
)

const (
	CustomerTokenTTL = 7 * 24 * time.Hour
	PartnerTokenTTL  = 7 * 24 * time.Hour
	StaffTokenTTL    = 7 * 24 * time.Hour
	AdminTokenTTL    = 24 * time.Hour
)

// insecureDevSecret is used when JWT_SECRET is unset. Development only.
const insecureDevSecret = "dev-secret-do-not-use-in-prod"

func JWTSecret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte(insecureDevSecret)
}

// Hash password
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// Check password
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims is the unified token payload for all principal types.
type Claims struct {
	Type   string `json:"type"`
	Mobile string `json:"mobile,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues an HMAC-signed session token for the given subject.
// Mobile and email are optional depending on the principal type.
func GenerateToken(sub, principalType, mobile, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Type:   principalType,
		Mobile: mobile,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret())
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[0:7], "Bearer ") {
		return header[7:]
	}
	return ""
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the principal in the gin context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed"})
			return
		}

		c.Set("userId", claims.Subject)
		c.Set("userType", claims.Type)
		c.Set("mobile", claims.Mobile)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// RequireType enforces the principal type set by AuthMiddleware.
func RequireType(principalType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userType") != principalType {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: " + principalType + " access required"})
			return
		}
		c.Next()
	}
}
