package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relaychat/internal/app/chat"
	"relaychat/internal/configs"
	"relaychat/internal/pkg/auth/jwt"
)

func testDeps() *AppDeps {
	registry := chat.NewRegistry()
	return &AppDeps{
		Config: &configs.AppConfig{
			Environment: "development",
			Host:        "localhost",
			Port:        8080,
			JWTSecret:   "router-test-secret",
		},
		Registry:    registry,
		Broadcaster: chat.NewBroadcaster(registry),
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := Router(testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Code int `json:"code"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Data.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Data.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := Router(testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	router := Router(testDeps())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/chats/"},
		{http.MethodGet, "/api/contacts/"},
		{http.MethodGet, "/api/users/search?phone=123"},
		{http.MethodGet, "/api/media/download?key=chats/1/x.png"},
		{http.MethodGet, "/api/contacts/search?q=bo"},
	}

	for _, p := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestProtectedRoutesRejectBadToken(t *testing.T) {
	router := Router(testDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/chats/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestIdentityExtractedFromValidToken(t *testing.T) {
	deps := testDeps()
	router := Router(deps)

	token, err := jwt.GenerateToken(5, deps.Config.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	// Search with no query parameters fails validation, which proves the
	// request got past the auth check.
	req := httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", rec.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := Router(testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChatIDFromObjectKey(t *testing.T) {
	cases := []struct {
		key    string
		chatID int64
		ok     bool
	}{
		{"chats/12/abc.png", 12, true},
		{"chats/12/", 0, false},
		{"chats/x/abc.png", 0, false},
		{"avatars/12/abc.png", 0, false},
		{"chats/12", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		chatID, ok := chatIDFromObjectKey(c.key)
		if ok != c.ok || chatID != c.chatID {
			t.Fatalf("key %q: got (%d, %v), want (%d, %v)", c.key, chatID, ok, c.chatID, c.ok)
		}
	}
}
