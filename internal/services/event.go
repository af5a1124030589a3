package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"discodoge/internal/domain"
)

type eventService struct {
	logger         *slog.Logger
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

func NewEventService(logger *slog.Logger, eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		logger:         logger,
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// UpcomingEvents returns at most limit events ordered by date, earliest first.
func (s *eventService) UpcomingEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b *domain.Event) int {
		return strings.Compare(a.Date, b.Date)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (s *eventService) ListEventsBySlug(ctx context.Context, slug string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("list events by slug: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// GetEventBySlug returns the first event whose slug matches, or domain.ErrNotFound.
func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	events, err := s.ListEventsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	var matches []*domain.Event
	for _, e := range events {
		if e.Slug == slug {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}
	if len(matches) > 1 {
		s.logger.WarnContext(ctx, "slug matches more than one event, using first", "slug", slug, "count", len(matches))
	}
	return matches[0], nil
}

func (s *eventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list my events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// UpdateEvent validates fields locally before the single round trip. A *domain.ValidationError
// means nothing was sent.
func (s *eventService) UpdateEvent(ctx context.Context, id string, fields domain.EventFields) (*domain.Event, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.logger.InfoContext(ctx, "event updated", "event_id", id, "slug", event.Slug)
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", id)
	return nil
}
