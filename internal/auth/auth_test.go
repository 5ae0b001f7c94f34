package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTRoundTrip(t *testing.T) {
	mgr := NewJWTManager(testSecret, time.Hour)

	token, err := mgr.Generate("admin")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	if token.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", token.ExpiresIn)
	}

	claims, err := mgr.Validate(token.AccessToken)
	if err != nil {
		t.Fatalf("validating token: %v", err)
	}
	if claims.Username != "admin" {
		t.Fatalf("expected username admin, got %q", claims.Username)
	}
}

func TestJWTExpired(t *testing.T) {
	mgr := NewJWTManager(testSecret, -time.Minute)

	token, err := mgr.Generate("admin")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	if _, err := mgr.Validate(token.AccessToken); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	mgr := NewJWTManager(testSecret, time.Hour)
	other := NewJWTManager("another-secret-another-secret-xx", time.Hour)

	token, err := mgr.Generate("admin")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	if _, err := other.Validate(token.AccessToken); err == nil {
		t.Fatal("expected token signed with a different secret to fail")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	if err := ComparePassword(hash, "s3cret-password"); err != nil {
		t.Fatalf("expected matching password to verify: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected wrong password to fail")
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	mgr := NewJWTManager(testSecret, time.Hour)
	h := NewHandler(mgr, "admin", hash)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid credentials", `{"username":"admin","password":"correct horse"}`, http.StatusOK},
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"wrong username", `{"username":"root","password":"correct horse"}`, http.StatusUnauthorized},
		{"malformed body", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusOK && !strings.Contains(rec.Body.String(), "access_token") {
				t.Fatalf("expected access_token in response, got %s", rec.Body.String())
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	mgr := NewJWTManager(testSecret, time.Hour)
	token, err := mgr.Generate("admin")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	protected := Middleware(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil || claims.Username != "admin" {
			t.Error("expected claims in request context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid bearer token", "Bearer " + token.AccessToken, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/users/alice@example.org/quota", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
