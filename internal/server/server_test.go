package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               8080,
		DataDir:            t.TempDir(),
		JWTSecret:          "server-test-secret-0123456789",
		BcryptCost:         4,
		AuthRateLimitRPS:   100,
		AuthRateLimitBurst: 100,
		LogLevel:           "error",
		LogFormat:          "text",
		CORSAllowedOrigin:  "*",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	s, err := New(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func send(t *testing.T, method, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const eventJSON = `{"event":{"title":"Birthday Party","date":"2026-11-20","time":"18:00","address":"Rua A, 1","status":"pending"}}`

func TestServer_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	ts := newTestServer(t, cfg)

	resp := send(t, http.MethodGet, ts.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, http.MethodPost, ts.URL+"/events", eventJSON, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = send(t, http.MethodGet, ts.URL+"/events?search=birth", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Events, 1)
	assert.Equal(t, "Birthday Party", list.Events[0].Title)

	resp = send(t, http.MethodGet, ts.URL+"/products", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, name := range []string{"events.json", "products.json"} {
		_, err := os.Stat(filepath.Join(cfg.DataDir, name))
		assert.NoError(t, err, name)
	}

	resp = send(t, http.MethodGet, ts.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	exposition, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(exposition), `organizationapp_http_requests_total{method="POST",route="/events",status="201"}`)
	assert.Contains(t, string(exposition), "organizationapp_store_operations_total")
}

func TestServer_AuthFlow(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	resp := send(t, http.MethodPost, ts.URL+"/auth/signup", `{"email":"ana@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var signup struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&signup))

	resp = send(t, http.MethodGet, ts.URL+"/auth/me", "", signup.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, http.MethodGet, ts.URL+"/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_RequireAuthGuardsWrites(t *testing.T) {
	cfg := testConfig(t)
	cfg.RequireAuth = true
	ts := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, send(t, http.MethodGet, ts.URL+"/events", "", "").StatusCode, "reads stay public")

	writes := []struct{ method, path, body string }{
		{http.MethodPost, "/events", eventJSON},
		{http.MethodPut, "/events/1", eventJSON},
		{http.MethodPatch, "/events/1/products", `{"description":"x"}`},
		{http.MethodDelete, "/events/1", ""},
		{http.MethodPost, "/migrate-old-events", ""},
		{http.MethodPost, "/products", `{"product":{"name":"Bolo"}}`},
	}
	for _, w := range writes {
		resp := send(t, w.method, ts.URL+w.path, w.body, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", w.method, w.path)
	}

	resp := send(t, http.MethodPost, ts.URL+"/auth/signup", `{"email":"ana@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var signup struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&signup))

	resp = send(t, http.MethodPost, ts.URL+"/events", eventJSON, signup.Token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestServer_AuthRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthRateLimitRPS = 0.001
	cfg.AuthRateLimitBurst = 2
	ts := newTestServer(t, cfg)

	body := `{"email":"nobody@example.com","password":"secret123"}`
	assert.Equal(t, http.StatusUnprocessableEntity, send(t, http.MethodPost, ts.URL+"/auth/login", body, "").StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, send(t, http.MethodPost, ts.URL+"/auth/login", body, "").StatusCode)

	resp := send(t, http.MethodPost, ts.URL+"/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send(t, http.MethodGet, ts.URL+"/events", "", "").StatusCode, "only /auth is limited")
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNew_RejectsBadAuthSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.BcryptCost = 99
	_, err := New(cfg, slog.New(slog.DiscardHandler))
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.JWTSecret = "short"
	_, err = New(cfg, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
