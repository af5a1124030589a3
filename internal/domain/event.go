package domain

import (
	"context"
	"strings"
)

// Event represents a listed event. Owned by the content API; ID and Slug are both unique.
// swagger:model Event
type Event struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Performers  string `json:"performers"`
	Venue       string `json:"venue"`
	Address     string `json:"address"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
}

// Fields returns the editable fields of the event.
func (e *Event) Fields() EventFields {
	return EventFields{
		Name:        e.Name,
		Performers:  e.Performers,
		Venue:       e.Venue,
		Address:     e.Address,
		Date:        e.Date,
		Time:        e.Time,
		Description: e.Description,
	}
}

// EventFields is the full set of editable event fields. Every field is required.
// swagger:model EventFields
type EventFields struct {
	Name        string `json:"name"`
	Performers  string `json:"performers"`
	Venue       string `json:"venue"`
	Address     string `json:"address"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description"`
}

// EventFieldNames lists the editable field names in form order.
var EventFieldNames = []string{"name", "performers", "venue", "address", "date", "time", "description"}

// Get returns the named field and whether the name is known.
func (f *EventFields) Get(name string) (string, bool) {
	p := f.ptr(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set assigns the named field. It returns false for unknown names.
func (f *EventFields) Set(name, value string) bool {
	p := f.ptr(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (f *EventFields) ptr(name string) *string {
	switch strings.ToLower(name) {
	case "name":
		return &f.Name
	case "performers":
		return &f.Performers
	case "venue":
		return &f.Venue
	case "address":
		return &f.Address
	case "date":
		return &f.Date
	case "time":
		return &f.Time
	case "description":
		return &f.Description
	}
	return nil
}

// Validate returns a *ValidationError naming every empty field, or nil.
func (f EventFields) Validate() error {
	var empty []string
	for _, name := range EventFieldNames {
		if v, _ := f.Get(name); v == "" {
			empty = append(empty, name)
		}
	}
	if len(empty) > 0 {
		return &ValidationError{Fields: empty}
	}
	return nil
}

// EventRepository defines the interface for event storage.
// ListBySlug may return more than one record if the store does not enforce slug uniqueness.
type EventRepository interface {
	List(ctx context.Context) ([]*Event, error)
	ListBySlug(ctx context.Context, slug string) ([]*Event, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, id string, fields EventFields) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService defines the business logic for reading and editing events.
type EventService interface {
	ListEvents(ctx context.Context) ([]*Event, error)
	UpcomingEvents(ctx context.Context, limit int) ([]*Event, error)
	ListEventsBySlug(ctx context.Context, slug string) ([]*Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	GetEventByID(ctx context.Context, id string) (*Event, error)
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, id string, fields EventFields) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
