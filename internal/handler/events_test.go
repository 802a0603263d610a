package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/service"
)

func TestEvents_CreateThenGet(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/events", eventBody("Birthday Party"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	created := decode[struct {
		Event model.Event `json:"event"`
	}](t, rr).Event
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Birthday Party", created.Title)

	rr = api.do(t, http.MethodGet, "/events/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[map[string]map[string]any](t, rr)["event"]
	assert.Equal(t, created.ID, got["id"])
	assert.Equal(t, []any{}, got["bolosDetalhados"], "products are always an array")
}

func TestEvents_CreateRejects(t *testing.T) {
	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"no event key", map[string]any{"title": "x"}, ""},
		{"malformed json", `{"event":`, ""},
		{"empty body", "", ""},
		{"blank title", eventBody("   "), "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			rr := api.do(t, http.MethodPost, "/events", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			body := decode[ErrorResponse](t, rr)
			assert.Equal(t, "validation_error", body.Error)
			assert.NotEmpty(t, body.Message)
			if tt.wantField != "" {
				assert.Contains(t, body.Errors, tt.wantField)
			}
		})
	}
}

func TestEvents_GetNotFound(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/events/42", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	body := decode[ErrorResponse](t, rr)
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "For the id 42, no event could be found.", body.Message)
}

func TestEvents_ListSearchAndMax(t *testing.T) {
	api := newTestAPI(t)
	for _, title := range []string{"E1", "E2 Birthday", "E3", "E4", "E5 birthday"} {
		require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/events", eventBody(title)).Code)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"E1", "E2 Birthday", "E3", "E4", "E5 birthday"}},
		{"?max=2", []string{"E4", "E5 birthday"}},
		{"?search=BIRTH", []string{"E2 Birthday", "E5 birthday"}},
		{"?search=birth&max=1", []string{"E5 birthday"}},
		{"?search=nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := api.do(t, http.MethodGet, "/events"+tt.query, nil)
			require.Equal(t, http.StatusOK, rr.Code)

			events := decode[struct {
				Events []model.Event `json:"events"`
			}](t, rr).Events
			titles := make([]string, len(events))
			for i, e := range events {
				titles[i] = e.Title
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestEvents_ListBadMax(t *testing.T) {
	api := newTestAPI(t)

	for _, q := range []string{"?max=abc", "?max=-1", "?max=1.5"} {
		rr := api.do(t, http.MethodGet, "/events"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestEvents_UpdateKeepsPathID(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodPost, "/events", eventBody("Before"))
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decode[struct {
		Event model.Event `json:"event"`
	}](t, rr).Event.ID

	body := eventBody("After")
	body["event"].(map[string]any)["id"] = "hijack"
	rr = api.do(t, http.MethodPut, "/events/"+id, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	updated := decode[struct {
		Event model.Event `json:"event"`
	}](t, rr).Event
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "After", updated.Title)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/events/hijack", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPut, "/events/hijack", eventBody("x")).Code)
}

func TestEvents_PatchProducts(t *testing.T) {
	api := newTestAPI(t)
	body := eventBody("Order")
	body["event"].(map[string]any)["products"] = "Cake A\nCake B"
	rr := api.do(t, http.MethodPost, "/events", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decode[struct {
		Event model.Event `json:"event"`
	}](t, rr).Event.ID

	tests := []struct {
		name  string
		patch any
		want  []model.ProductDetail
	}{
		{
			name:  "array",
			patch: map[string]any{"bolosDetalhados": []map[string]string{{"peso": "1kg"}}},
			want:  []model.ProductDetail{{Nome: "Cake A", Peso: "1kg"}, {Nome: "Cake B"}},
		},
		{
			name:  "encoded string",
			patch: `{"bolosDetalhados":"[{\"nome\":\"\",\"peso\":\"\",\"descricao\":\"\"},{\"descricao\":\"frosted\"}]"}`,
			want:  []model.ProductDetail{{Nome: "Cake A", Peso: "1kg"}, {Nome: "Cake B", Descricao: "frosted"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPatch, "/events/"+id+"/products", tt.patch)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			ev := decode[struct {
				Event model.Event `json:"event"`
			}](t, rr).Event
			assert.Equal(t, tt.want, ev.Products)
		})
	}

	rr = api.do(t, http.MethodPatch, "/events/"+id+"/products", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "empty patch")

	rr = api.do(t, http.MethodPatch, "/events/"+id+"/products", `{"bolosDetalhados":{"nome":1}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "wrong shape")

	rr = api.do(t, http.MethodPatch, "/events/nope/products", map[string]any{"description": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEvents_Delete(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodPost, "/events", eventBody("Gone soon"))
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decode[struct {
		Event model.Event `json:"event"`
	}](t, rr).Event.ID

	rr = api.do(t, http.MethodDelete, "/events/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Event deleted.", decode[MessageResponse](t, rr).Message)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/events/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/events/"+id, nil).Code)
}

func TestEvents_Migrate(t *testing.T) {
	api := newTestAPI(t)
	api.writeFile(t, "events.json", `[
		{"id":"1","title":"Old","date":"d","time":"t","address":"a","status":"s","products":"Cake A\nCake B"},
		{"id":"2","title":"New","date":"d","time":"t","address":"a","status":"s","bolosDetalhados":[]}
	]`)

	rr := api.do(t, http.MethodPost, "/migrate-old-events", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[struct {
		Message        string `json:"message"`
		MigratedEvents int    `json:"migratedEvents"`
	}](t, rr)
	assert.Equal(t, 1, body.MigratedEvents)
	assert.Contains(t, body.Message, "1")

	rr = api.do(t, http.MethodGet, "/events/1", nil)
	ev := decode[struct {
		Event model.Event `json:"event"`
	}](t, rr).Event
	assert.Equal(t, []model.ProductDetail{{Nome: "Cake A"}, {Nome: "Cake B"}}, ev.Products)
}

// =========================================================================
// ERROR MAPPING
// =========================================================================

// stubEvents fails every call with err.
type stubEvents struct{ err error }

func (s stubEvents) List(context.Context, string, int) ([]model.Event, error) { return nil, s.err }
func (s stubEvents) Get(context.Context, string) (*model.Event, error)       { return nil, s.err }
func (s stubEvents) Create(context.Context, model.Event) (*model.Event, error) {
	return nil, s.err
}
func (s stubEvents) Update(context.Context, string, model.Event) (*model.Event, error) {
	return nil, s.err
}
func (s stubEvents) PatchProducts(context.Context, string, service.ProductsPatch) (*model.Event, error) {
	return nil, s.err
}
func (s stubEvents) Delete(context.Context, string) error       { return s.err }
func (s stubEvents) MigrateLegacy(context.Context) (int, error) { return 0, s.err }

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{"validation", apperror.ValidationFailed("title", "Invalid data provided."), 400, "validation_error", "Invalid data provided."},
		{"not found", apperror.NotFound("event", "7"), 404, "not_found", "For the id 7, no event could be found."},
		{"conflict", apperror.Conflict("Product", "this name"), 409, "conflict", "Product with this name exists already"},
		{"invalid credentials", apperror.InvalidCredentials(), 422, "invalid_credentials", "Invalid credentials."},
		{"unauthorized", apperror.Unauthorized("Not authenticated."), 401, "unauthorized", "Not authenticated."},
		{"storage", apperror.StorageUnavailable("events", errors.New("open /srv/data/events.json: permission denied")), 500, "storage_unavailable", "events storage is unavailable"},
		{"unknown", errors.New("secret internal detail"), 500, "internal_error", "An internal error occurred"},
		{"wrapped", fmt.Errorf("ctx: %w", apperror.NotFound("event", "8")), 404, "not_found", "For the id 8, no event could be found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEventHandler(stubEvents{err: tt.err}, slog.New(slog.DiscardHandler))
			rr := httptest.NewRecorder()
			h.HandleList(rr, httptest.NewRequest(http.MethodGet, "/events", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			body := decode[ErrorResponse](t, rr)
			assert.Equal(t, tt.wantKind, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.NotContains(t, rr.Body.String(), "permission denied")
			assert.NotContains(t, rr.Body.String(), "secret internal detail")
		})
	}
}
