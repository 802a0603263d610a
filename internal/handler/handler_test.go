package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/auth"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/repository/jsonfile"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/service"
)

// =========================================================================
// TEST HELPERS
// =========================================================================
//
// Handler tests drive a chi router over real services and real JSON files
// in a temp dir, so each test checks the full path from request to file.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testAPI struct {
	router http.Handler
	tokens *auth.TokenService
	dir    string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()

	store, err := jsonfile.New(map[string]string{
		"events":   filepath.Join(dir, "events.json"),
		"products": filepath.Join(dir, "products.json"),
		"users":    filepath.Join(dir, "users.json"),
	}, logger)
	require.NoError(t, err)

	events, err := jsonfile.Open(store, "events", jsonfile.Options[model.Event]{})
	require.NoError(t, err)
	products, err := jsonfile.Open(store, "products", jsonfile.Options[model.Product]{Default: model.DefaultProducts()})
	require.NoError(t, err)
	users, err := jsonfile.Open(store, "users", jsonfile.Options[model.User]{WrapKey: "users"})
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", 0)
	require.NoError(t, err)

	eh := NewEventHandler(service.NewEventService(events, logger), logger)
	ph := NewProductHandler(service.NewProductService(products, logger), logger)
	ah := NewAuthHandler(service.NewAuthService(users, tokens, auth.NewPasswordServiceForTest(), logger), logger)

	r := chi.NewRouter()
	r.Get("/events", eh.HandleList)
	r.Get("/events/{id}", eh.HandleGet)
	r.Post("/events", eh.HandleCreate)
	r.Put("/events/{id}", eh.HandleUpdate)
	r.Patch("/events/{id}/products", eh.HandlePatchProducts)
	r.Delete("/events/{id}", eh.HandleDelete)
	r.Post("/migrate-old-events", eh.HandleMigrate)
	r.Get("/products", ph.HandleList)
	r.Post("/products", ph.HandleCreate)
	r.Post("/auth/signup", ah.HandleSignup)
	r.Post("/auth/login", ah.HandleLogin)
	r.With(auth.RequireAuth(tokens)).Get("/auth/me", ah.HandleMe)

	return &testAPI{router: r, tokens: tokens, dir: dir}
}

// do sends a request with an optional JSON body and returns the recorder.
func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(a.dir, name), []byte(content), 0o644))
}

// decode unmarshals the recorder body into a fresh T.
func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func eventBody(title string) map[string]any {
	return map[string]any{
		"event": map[string]any{
			"title":   title,
			"date":    "2026-11-20",
			"time":    "18:00",
			"address": "Rua das Flores, 100",
			"status":  "pending",
		},
	}
}
