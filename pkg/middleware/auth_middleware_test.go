package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func protectedHandler(t *testing.T, gotUser, gotEmail *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserID(r.Context())
		if !ok {
			t.Error("handler reached without user id in context")
		}
		*gotUser = user
		email, _ := GetEmail(r.Context())
		*gotEmail = email
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireValidToken(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	var gotUser, gotEmail string
	handler := am.Require(protectedHandler(t, &gotUser, &gotEmail))

	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotUser != "user-1" || gotEmail != "user@example.com" {
		t.Errorf("context identity = %s/%s", gotUser, gotEmail)
	}
}

func TestRequireRejections(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	handler := am.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with an invalid token")
	}))

	expired := mintToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := mintToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})
	noSubject := mintToken(t, testSecret, jwt.MapClaims{"email": "user@example.com"})

	cases := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage", "not.a.jwt"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"missing subject", noSubject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				r.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestTokenSources(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	var gotUser, gotEmail string
	handler := am.Require(protectedHandler(t, &gotUser, &gotEmail))

	token := mintToken(t, testSecret, jwt.MapClaims{"sub": "user-2"})

	// Cookie fallback, used by browser WebSocket clients.
	r := httptest.NewRequest(http.MethodGet, "/ws/fraud", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK || gotUser != "user-2" {
		t.Errorf("cookie token: status = %d, user = %s", w.Code, gotUser)
	}

	// Query parameter fallback.
	gotUser = ""
	r = httptest.NewRequest(http.MethodGet, "/ws/fraud?token="+token, nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK || gotUser != "user-2" {
		t.Errorf("query token: status = %d, user = %s", w.Code, gotUser)
	}
}
