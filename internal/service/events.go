package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/metrics"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/repository"
)

// errNothingToMigrate aborts a migration Update without writing.
var errNothingToMigrate = errors.New("nothing to migrate")

// EventService handles business logic for events.
type EventService struct {
	events   repository.Collection[model.Event]
	validate *validator.Validate
	logger   *slog.Logger
}

// NewEventService creates an EventService on top of the events collection.
func NewEventService(events repository.Collection[model.Event], logger *slog.Logger) *EventService {
	return &EventService{
		events:   events,
		validate: newValidator(),
		logger:   logger,
	}
}

// ProductsPatch is a partial update of an event's product details.
type ProductsPatch struct {
	Products    []model.ProductDetail
	Description string
}

// List returns the events whose title, description or address contain
// search (case-insensitive), keeping only the last limit of them.
//
// The search filter runs before the limit, so limit=2 with a search returns
// the last two MATCHES, not the matches among the last two events.
func (s *EventService) List(ctx context.Context, search string, limit int) ([]model.Event, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	events, err := s.events.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load events", slog.String("error", err.Error()))
		return nil, storageErr(s.events.Name(), err)
	}

	events = filterSearch(events, search, (*model.Event).SearchText)
	return lastN(events, limit), nil
}

// Get returns the event with the given id.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	events, err := s.events.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load events", slog.String("error", err.Error()))
		return nil, storageErr(s.events.Name(), err)
	}

	i := indexOfEvent(events, id)
	if i < 0 {
		return nil, apperror.NotFound("event", id)
	}
	return &events[i], nil
}

// Create validates input, assigns a fresh id and appends the event.
//
// Any id on the input is ignored. Legacy product fields on the input were
// already converted when it was decoded, so the stored record is canonical.
func (s *EventService) Create(ctx context.Context, input model.Event) (*model.Event, error) {
	if err := validateRecord(s.validate, &input); err != nil {
		return nil, err
	}

	event := input
	event.ID = xid.New().String()

	err := s.events.Update(ctx, func(events []model.Event) ([]model.Event, error) {
		return append(events, event), nil
	})
	if err != nil {
		s.logger.Error("failed to create event",
			slog.String("title", event.Title),
			slog.String("error", err.Error()),
		)
		return nil, storageErr(s.events.Name(), err)
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("title", event.Title),
		slog.Int("products", len(event.Products)),
	)
	return &event, nil
}

// Update replaces every field of the event except its id, which comes from
// the path and never from the body.
//
// Description and product details are optional: when the input leaves them
// empty, the stored values are carried forward instead of being cleared.
func (s *EventService) Update(ctx context.Context, id string, input model.Event) (*model.Event, error) {
	if err := validateRecord(s.validate, &input); err != nil {
		return nil, err
	}

	var updated model.Event
	err := s.events.Update(ctx, func(events []model.Event) ([]model.Event, error) {
		i := indexOfEvent(events, id)
		if i < 0 {
			return nil, apperror.NotFound("event", id)
		}

		next := input
		next.ID = id
		if strings.TrimSpace(next.Description) == "" {
			next.Description = events[i].Description
		}
		if len(next.Products) == 0 {
			next.Products = events[i].Products
		}

		events[i] = next
		updated = next
		return events, nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update event", slog.String("id", id), slog.String("error", err.Error()))
		}
		return nil, storageErr(s.events.Name(), err)
	}

	s.logger.Info("event updated", slog.String("id", id), slog.String("title", updated.Title))
	return &updated, nil
}

// PatchProducts merges product details into the event by index.
//
// For each incoming item, non-empty fields override the stored item at the
// same position and empty fields keep it. Incoming items past the end of the
// stored list are appended when they have a name; stored items past the end
// of the incoming list are left alone. A non-empty description replaces the
// stored one.
func (s *EventService) PatchProducts(ctx context.Context, id string, patch ProductsPatch) (*model.Event, error) {
	description := strings.TrimSpace(patch.Description)
	if len(patch.Products) == 0 && description == "" {
		return nil, apperror.ValidationFailed("bolosDetalhados", msgInvalidData)
	}

	var updated model.Event
	err := s.events.Update(ctx, func(events []model.Event) ([]model.Event, error) {
		i := indexOfEvent(events, id)
		if i < 0 {
			return nil, apperror.NotFound("event", id)
		}

		ev := events[i]
		ev.Products = mergeDetails(ev.Products, patch.Products)
		if description != "" {
			ev.Description = patch.Description
		}

		events[i] = ev
		updated = ev
		return events, nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to patch event products", slog.String("id", id), slog.String("error", err.Error()))
		}
		return nil, storageErr(s.events.Name(), err)
	}

	s.logger.Info("event products patched",
		slog.String("id", id),
		slog.Int("products", len(updated.Products)),
	)
	return &updated, nil
}

// Delete removes the event for good.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *EventService) Delete(ctx context.Context, id string) error {
	err := s.events.Update(ctx, func(events []model.Event) ([]model.Event, error) {
		i := indexOfEvent(events, id)
		if i < 0 {
			return nil, apperror.NotFound("event", id)
		}
		return slices.Delete(events, i, i+1), nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete event", slog.String("id", id), slog.String("error", err.Error()))
		}
		return storageErr(s.events.Name(), err)
	}

	s.logger.Info("event deleted", slog.String("id", id))
	return nil
}

// MigrateLegacy rewrites every event still stored in a legacy product shape
// in the canonical one and returns how many were converted.
//
// The conversion itself happens while decoding; rewriting the collection is
// what makes it permanent. When no event needs it, the file is not touched.
func (s *EventService) MigrateLegacy(ctx context.Context) (int, error) {
	count := 0
	err := s.events.Update(ctx, func(events []model.Event) ([]model.Event, error) {
		for i := range events {
			if events[i].Migrated() {
				count++
			}
		}
		if count == 0 {
			return nil, errNothingToMigrate
		}
		return events, nil
	})
	if errors.Is(err, errNothingToMigrate) {
		s.logger.Info("no legacy events to migrate")
		return 0, nil
	}
	if err != nil {
		s.logger.Error("event migration failed", slog.String("error", err.Error()))
		return 0, storageErr(s.events.Name(), err)
	}

	metrics.MigratedEvents.Add(float64(count))
	s.logger.Info("legacy events migrated", slog.Int("count", count))
	return count, nil
}

func indexOfEvent(events []model.Event, id string) int {
	return slices.IndexFunc(events, func(e model.Event) bool { return e.ID == id })
}

// mergeDetails applies incoming over stored item by item.
func mergeDetails(stored, incoming []model.ProductDetail) []model.ProductDetail {
	merged := slices.Clone(stored)
	for i, in := range incoming {
		if i >= len(merged) {
			if strings.TrimSpace(in.Nome) != "" {
				merged = append(merged, in)
			}
			continue
		}
		if in.Nome != "" {
			merged[i].Nome = in.Nome
		}
		if in.Peso != "" {
			merged[i].Peso = in.Peso
		}
		if in.Descricao != "" {
			merged[i].Descricao = in.Descricao
		}
	}
	return merged
}
