package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/service"
)

// EventHandler serves the /events routes and the legacy migration endpoint.
type EventHandler struct {
	events EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// eventEnvelope is both the request and the response body of single-event
// endpoints: {"event": {...}}.
type eventEnvelope struct {
	Event *model.Event `json:"event"`
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
}

// patchProductsRequest keeps bolosDetalhados raw so the encoded-string form
// older clients send is accepted too.
type patchProductsRequest struct {
	Products    json.RawMessage `json:"bolosDetalhados"`
	Description string          `json:"description"`
}

type migrateResponse struct {
	Message        string `json:"message"`
	MigratedEvents int    `json:"migratedEvents"`
}

// HandleList returns events, optionally filtered and limited.
//
// HTTP: GET /events?search=birth&max=2
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseMax(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	events, err := h.events.List(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// HandleGet returns a single event.
//
// HTTP: GET /events/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, eventEnvelope{Event: event})
}

// HandleCreate creates an event.
//
// HTTP: POST /events
// REQUEST BODY: {"event": {"title": "...", "date": "...", ...}}
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input, err := decodeEvent(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), *input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventEnvelope{Event: event})
}

// HandleUpdate replaces an event. The id in the body, if any, is ignored.
//
// HTTP: PUT /events/{id}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	input, err := decodeEvent(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Update(r.Context(), chi.URLParam(r, "id"), *input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, eventEnvelope{Event: event})
}

// HandlePatchProducts merges product details into an event.
//
// HTTP: PATCH /events/{id}/products
// REQUEST BODY: {"bolosDetalhados": [{"nome": "...", "peso": "..."}], "description": "..."}
func (h *EventHandler) HandlePatchProducts(w http.ResponseWriter, r *http.Request) {
	var req patchProductsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	products, err := model.DecodeProductDetails(req.Products)
	if err != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("bolosDetalhados", "Invalid data provided."))
		return
	}

	event, err := h.events.PatchProducts(r.Context(), chi.URLParam(r, "id"), service.ProductsPatch{
		Products:    products,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, eventEnvelope{Event: event})
}

// HandleDelete removes an event.
//
// HTTP: DELETE /events/{id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Event deleted."})
}

// HandleMigrate rewrites legacy events in the canonical product shape.
//
// HTTP: POST /migrate-old-events
func (h *EventHandler) HandleMigrate(w http.ResponseWriter, r *http.Request) {
	count, err := h.events.MigrateLegacy(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, migrateResponse{
		Message:        fmt.Sprintf("Migração concluída. %d eventos foram atualizados.", count),
		MigratedEvents: count,
	})
}

// decodeEvent reads {"event": {...}}. A body without the event key is
// rejected before the service sees it.
func decodeEvent(w http.ResponseWriter, r *http.Request) (*model.Event, error) {
	var env eventEnvelope
	if err := decodeJSON(w, r, &env); err != nil {
		return nil, err
	}
	if env.Event == nil {
		return nil, apperror.ValidationFailed("event", "Event is required")
	}
	return env.Event, nil
}

// parseMax reads the optional max query parameter. Absent means no limit.
func parseMax(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("max")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed("max", "max must be a non-negative integer")
	}
	return n, nil
}
