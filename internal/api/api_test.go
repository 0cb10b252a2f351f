package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scepter7/pychat/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.Config{ServerURL: srv.URL, RefreshSlackSeconds: 60}), srv
}

func signToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestLogin_StoresTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["username"] != "alice" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "at1", "refresh_token": "rt1"})
	})
	c, _ := newTestClient(t, mux)

	if err := c.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if c.AccessToken() != "at1" {
		t.Errorf("AccessToken() = %q, want at1", c.AccessToken())
	}
}

func TestRefresh_RotatesBothTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "at1", "refresh_token": "rt1"})
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["refresh_token"] != "rt1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "at2", "refresh_token": "rt2"})
	})
	c, _ := newTestClient(t, mux)

	if err := c.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if c.AccessToken() != "at2" {
		t.Errorf("AccessToken() = %q, want at2", c.AccessToken())
	}
	c.mu.Lock()
	rt := c.refresh
	c.mu.Unlock()
	if rt != "rt2" {
		t.Errorf("refresh token = %q, want rt2", rt)
	}
}

func TestRefresh_WithoutToken(t *testing.T) {
	c := New(config.Config{ServerURL: "http://localhost:0"})
	if err := c.Refresh(context.Background()); err == nil {
		t.Error("Refresh() error = nil, want error without refresh token")
	}
}

func TestHistory_SendsBearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/rooms/5/messages", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("limit") != "10" || r.URL.Query().Get("before_id") != "42" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"messages":[{"id":1,"roomId":5,"userId":2,"time":100,"content":"hi"}]}`))
	})
	c, _ := newTestClient(t, mux)
	c.setTokens("token-abc", "rt")

	msgs, err := c.History(context.Background(), 5, 42, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != 1 {
		t.Errorf("History() = %+v, want one message with id 1", msgs)
	}
	if gotAuth != "Bearer token-abc" {
		t.Errorf("Authorization = %q, want Bearer token-abc", gotAuth)
	}
}

func TestHistory_ErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	if _, err := c.History(context.Background(), 5, 0, 10); err == nil {
		t.Error("History() error = nil, want status error")
	}
}

func TestTokenExpiry(t *testing.T) {
	c := New(config.Config{ServerURL: "http://localhost:0"})
	c.setTokens(signToken(t, time.Hour), "rt")

	exp, err := c.tokenExpiry()
	if err != nil {
		t.Fatalf("tokenExpiry() error = %v", err)
	}
	until := time.Until(exp)
	if until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("expiry in %v, want about an hour", until)
	}
}

func TestTokenExpiry_Garbage(t *testing.T) {
	c := New(config.Config{ServerURL: "http://localhost:0"})
	c.setTokens("not-a-jwt", "rt")
	if _, err := c.tokenExpiry(); err == nil {
		t.Error("tokenExpiry() error = nil, want parse error")
	}
}
