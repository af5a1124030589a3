package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/lib/pq"

	"discodoge/internal/domain"
)

const (
	dateLayout      = "2006-01-02"
	uniqueViolation = "23505"
)

const eventColumns = `id, slug, name, performers, venue, address, date, time, description, image_url, owner_id`

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns an EventRepository over the local events table.
//
//	CREATE TABLE events (
//	    id          BIGSERIAL PRIMARY KEY,
//	    slug        TEXT NOT NULL UNIQUE,
//	    name        TEXT NOT NULL,
//	    performers  TEXT NOT NULL,
//	    venue       TEXT NOT NULL,
//	    address     TEXT NOT NULL,
//	    date        DATE NOT NULL,
//	    time        TEXT NOT NULL,
//	    description TEXT NOT NULL,
//	    image_url   TEXT,
//	    owner_id    TEXT,
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var date time.Time
	var imageNull, ownerNull sql.NullString
	if err := row.Scan(&e.ID, &e.Slug, &e.Name, &e.Performers, &e.Venue, &e.Address,
		&date, &e.Time, &e.Description, &imageNull, &ownerNull); err != nil {
		return nil, err
	}
	e.Date = date.Format(dateLayout)
	if imageNull.Valid {
		e.ImageURL = imageNull.String
	}
	if ownerNull.Valid {
		e.OwnerID = ownerNull.String
	}
	return e, nil
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC, id ASC`
	return r.queryEvents(ctx, query)
}

func (r *eventRepository) ListBySlug(ctx context.Context, s string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE slug = $1 ORDER BY id ASC`
	return r.queryEvents(ctx, query, s)
}

func (r *eventRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 ORDER BY date ASC, id ASC`
	return r.queryEvents(ctx, query, ownerID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Update writes every field and regenerates the slug from the name.
// A slug taken by another event gets the id appended.
func (r *eventRepository) Update(ctx context.Context, id string, fields domain.EventFields) (*domain.Event, error) {
	date, err := time.Parse(dateLayout, fields.Date)
	if err != nil {
		return nil, &domain.ValidationError{Fields: []string{"date"}}
	}

	newSlug := slug.Make(fields.Name)
	var taken bool
	if err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM events WHERE slug = $1 AND id <> $2)`, newSlug, id,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		newSlug = newSlug + "-" + id
	}

	e, err := r.updateRow(ctx, id, newSlug, date, fields)
	var pqErr *pq.Error
	if !taken && errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		// slug claimed between the check and the write
		e, err = r.updateRow(ctx, id, newSlug+"-"+id, date, fields)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) updateRow(ctx context.Context, id, newSlug string, date time.Time, fields domain.EventFields) (*domain.Event, error) {
	query := `
		UPDATE events
		SET slug = $1, name = $2, performers = $3, venue = $4, address = $5,
		    date = $6, time = $7, description = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + eventColumns
	return scanEvent(r.DB.QueryRowContext(ctx, query,
		newSlug, fields.Name, fields.Performers, fields.Venue, fields.Address,
		date, fields.Time, fields.Description, id,
	))
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
