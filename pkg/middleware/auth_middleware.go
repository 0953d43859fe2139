package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"payguard/pkg/response"
)

// AuthMiddleware verifies bearer tokens issued by the external auth service
// and exposes the caller's identity on the request context. Token issuance
// itself lives outside this system.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

type contextKey string

const (
	ContextUserID contextKey = "userID"
	ContextEmail  contextKey = "email"
	ContextToken  contextKey = "token"
)

func GetUserID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextUserID).(string)
	return val, ok && val != ""
}

func GetEmail(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextEmail).(string)
	return val, ok
}

func GetToken(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextToken).(string)
	return val, ok
}

func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	if q := r.URL.Query().Get("token"); q != "" {
		return q
	}
	return ""
}

// Require rejects requests without a valid bearer token.
func (am *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized, "No token provided")
			return
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return am.secret, nil
		})
		if err != nil || !parsed.Valid {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			response.Error(w, http.StatusUnauthorized, "Token missing subject")
			return
		}
		email, _ := claims["email"].(string)

		ctx := context.WithValue(r.Context(), ContextUserID, sub)
		ctx = context.WithValue(ctx, ContextEmail, email)
		ctx = context.WithValue(ctx, ContextToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
