package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vnkhanh/koru-backend/apperr"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxEmail  = "email"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrNoSubject    = errors.New("token has no subject")
)

// Claims is the access token payload issued by the auth provider. The user
// id is the subject.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens signed with the project secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// UserID resolves a raw token to its user id.
func (v *TokenVerifier) UserID(tokenString string) (string, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("malformed Authorization header")
	}
	return parts[1], nil
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxEmail, claims.Email)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, v) {
			return
		}
		c.Next()
	}
}

// authenticate verifies the bearer token and stores its claims, aborting
// with 401 when it is missing or invalid.
func authenticate(c *gin.Context, v *TokenVerifier) bool {
	token, err := bearerToken(c)
	if err != nil {
		abortWithKind(c, http.StatusUnauthorized, apperr.Auth)
		return false
	}
	claims, err := v.Verify(token)
	if err != nil {
		abortWithKind(c, http.StatusUnauthorized, apperr.Auth)
		return false
	}
	setClaims(c, claims)
	return true
}

// OptionalAuthMiddleware identifies the user when a valid token is sent and
// otherwise lets the request through as a guest.
func OptionalAuthMiddleware(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}
		if claims, err := v.Verify(token); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// UserID returns the authenticated user, if any.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}

func abortWithKind(c *gin.Context, status int, kind apperr.Kind) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": apperr.MessageFor(kind, c.GetHeader("Accept-Language")),
		"code":  kind,
	})
}
