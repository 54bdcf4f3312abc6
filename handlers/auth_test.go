package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
)

func signedToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "courier-01",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRequireAuthMessages(t *testing.T) {
	env := newTestServer()
	app := env.server.App()

	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{
			name:    "missing header",
			header:  "",
			wantMsg: "missing or malformed authorization header",
		},
		{
			name:    "no bearer prefix",
			header:  "Token abc123",
			wantMsg: "missing or malformed authorization header",
		},
		{
			name:    "expired token",
			header:  "Bearer " + signedToken(t, "test-secret", time.Now().Add(-time.Minute)),
			wantMsg: "token has expired",
		},
		{
			name:    "wrong secret",
			header:  "Bearer " + signedToken(t, "other-secret", time.Now().Add(time.Hour)),
			wantMsg: "token is invalid",
		},
		{
			name:    "garbage token",
			header:  "Bearer not.a.jwt",
			wantMsg: "token is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPut, "/api/orders/order-1/status",
				map[string]string{"status": "prepared"}, "")
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
			}

			var got struct {
				Error string `json:"error"`
			}
			decodeBody(t, resp, &got)
			if got.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", got.Error, tt.wantMsg)
			}
		})
	}
}

func TestIssueTokenExpiry(t *testing.T) {
	env := newTestServer()

	tokenString, err := env.server.issueToken("courier-01")
	if err != nil {
		t.Fatalf("issueToken() error = %v", err)
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatal("exp claim missing")
	}
	ttl := time.Until(time.Unix(int64(exp), 0))
	if ttl < 55*time.Minute || ttl > 65*time.Minute {
		t.Errorf("token ttl = %v, want about one hour", ttl)
	}
	if id, _ := claims["id"].(string); id != "courier-01" {
		t.Errorf("id claim = %q, want courier-01", id)
	}
}

func TestValidateWSToken(t *testing.T) {
	env := newTestServer()

	tokenString, err := env.server.issueToken("courier-01")
	if err != nil {
		t.Fatalf("issueToken() error = %v", err)
	}

	if !env.server.validateWSToken(tokenString, "courier-01") {
		t.Error("valid token rejected")
	}
	if env.server.validateWSToken(tokenString, "courier-02") {
		t.Error("token accepted for a different courier")
	}
	if env.server.validateWSToken("garbage", "courier-01") {
		t.Error("garbage token accepted")
	}
}
