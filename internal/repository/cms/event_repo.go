// Package cms implements domain repositories on top of the remote content API.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	cmsclient "discodoge/internal/adapters/cms"
	"discodoge/internal/domain"
)

const eventsPath = "/api/events"

type eventRepository struct {
	client *cmsclient.Client
}

// NewEventRepository returns an EventRepository that reads and writes through the content API.
func NewEventRepository(client *cmsclient.Client) domain.EventRepository {
	return &eventRepository{client: client}
}

func populateAll() url.Values {
	q := url.Values{}
	q.Set("populate", "*")
	return q
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	resp, err := r.client.Do(ctx, http.MethodGet, eventsPath, populateAll(), nil)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return r.decodeList(resp)
}

func (r *eventRepository) ListBySlug(ctx context.Context, slug string) ([]*domain.Event, error) {
	q := populateAll()
	q.Set("filters[slug][$eq]", slug)
	resp, err := r.client.Do(ctx, http.MethodGet, eventsPath, q, nil)
	if err != nil {
		return nil, fmt.Errorf("list events by slug: %w", err)
	}
	return r.decodeList(resp)
}

// ListByOwner returns the events of the user owning the credential in ctx.
// The content API derives the owner from the bearer token, so ownerID is not sent.
func (r *eventRepository) ListByOwner(ctx context.Context, _ string) ([]*domain.Event, error) {
	if _, ok := domain.CredentialFromContext(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	resp, err := r.client.Do(ctx, http.MethodGet, eventsPath+"/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list my events: %w", err)
	}
	return r.decodeList(resp)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	resp, err := r.client.Do(ctx, http.MethodGet, eventsPath+"/"+url.PathEscape(id), populateAll(), nil)
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return r.decodeOne(resp)
}

func (r *eventRepository) Update(ctx context.Context, id string, fields domain.EventFields) (*domain.Event, error) {
	body := struct {
		Data domain.EventFields `json:"data"`
	}{Data: fields}
	resp, err := r.client.Do(ctx, http.MethodPut, eventsPath+"/"+url.PathEscape(id), populateAll(), body)
	if err != nil {
		return nil, fmt.Errorf("update event %s: %w", id, err)
	}
	return r.decodeOne(resp)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Do(ctx, http.MethodDelete, eventsPath+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// decodeList accepts both the {"data":[...]} envelope and a bare array.
func (r *eventRepository) decodeList(resp *cmsclient.Response) ([]*domain.Event, error) {
	var records []eventRecord
	if body := bytes.TrimSpace(resp.Body); len(body) > 0 && body[0] == '[' {
		if err := resp.Decode(&records); err != nil {
			return nil, err
		}
	} else {
		var env struct {
			Data []eventRecord `json:"data"`
		}
		if err := resp.Decode(&env); err != nil {
			return nil, err
		}
		records = env.Data
	}
	events := make([]*domain.Event, 0, len(records))
	for i := range records {
		events = append(events, records[i].toDomain(r.client))
	}
	return events, nil
}

func (r *eventRepository) decodeOne(resp *cmsclient.Response) (*domain.Event, error) {
	var env struct {
		Data *eventRecord `json:"data"`
	}
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.ID == "" {
		return nil, domain.ErrNotFound
	}
	return env.Data.toDomain(r.client), nil
}

// eventRecord is one event as returned by the content API, either wrapped
// ({"id":1,"attributes":{...}}) or flat ({"id":1,"name":...}).
type eventRecord struct {
	ID         json.Number
	Attributes eventAttributes
}

type eventAttributes struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Performers  string `json:"performers"`
	Venue       string `json:"venue"`
	Address     string `json:"address"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description"`
	Image       *media `json:"image"`
}

func (e *eventRecord) UnmarshalJSON(b []byte) error {
	var probe struct {
		ID         json.Number     `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	e.ID = probe.ID
	src := probe.Attributes
	if len(src) == 0 || string(src) == "null" {
		src = b
	}
	return json.Unmarshal(src, &e.Attributes)
}

func (e *eventRecord) toDomain(client *cmsclient.Client) *domain.Event {
	a := e.Attributes
	return &domain.Event{
		ID:          e.ID.String(),
		Slug:        a.Slug,
		Name:        a.Name,
		Performers:  a.Performers,
		Venue:       a.Venue,
		Address:     a.Address,
		Date:        a.Date,
		Time:        a.Time,
		Description: a.Description,
		ImageURL:    client.ResolveURL(a.Image.bestURL()),
	}
}

type mediaFile struct {
	URL     string `json:"url"`
	Formats map[string]struct {
		URL string `json:"url"`
	} `json:"formats"`
}

// media is a populated upload relation, wrapped ({"data":{"attributes":{...}}}) or flat.
type media struct {
	Data *struct {
		Attributes mediaFile `json:"attributes"`
	} `json:"data"`
	mediaFile
}

// bestURL prefers the large rendition, falling back through smaller ones to the original.
func (m *media) bestURL() string {
	if m == nil {
		return ""
	}
	file := m.mediaFile
	if m.Data != nil {
		file = m.Data.Attributes
	}
	for _, size := range []string{"large", "medium", "small"} {
		if f, ok := file.Formats[size]; ok && f.URL != "" {
			return f.URL
		}
	}
	return file.URL
}
