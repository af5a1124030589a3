package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"discodoge/internal/domain"
)

// FormState is the lifecycle state of an EventForm.
type FormState int

const (
	FormEditing FormState = iota
	FormSubmitting
	FormNavigating
)

func (s FormState) String() string {
	switch s {
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	case FormNavigating:
		return "navigating"
	}
	return "unknown"
}

const (
	MsgFillAllFields   = "Please fill in all fields"
	MsgSomethingWrong  = "Something went wrong"
	draftDateLayout    = "2006-01-02"
	draftDatePrefixLen = len(draftDateLayout)
)

// ErrUnknownField is returned by SetField for names outside domain.EventFieldNames.
var ErrUnknownField = errors.New("unknown event field")

// Outcome is the result of a submit attempt.
type Outcome struct {
	// Redirect is the detail page of the saved event; empty unless the form is navigating.
	Redirect string
	Event    *domain.Event
}

// EventForm edits one event. It is not safe for concurrent use.
type EventForm struct {
	svc     domain.EventService
	eventID string

	Draft   domain.EventFields
	State   FormState
	Message string
}

// NewEventForm starts editing event with its stored date reduced to YYYY-MM-DD.
func NewEventForm(svc domain.EventService, event *domain.Event) *EventForm {
	draft := event.Fields()
	draft.Date = DraftDate(draft.Date)
	return &EventForm{
		svc:     svc,
		eventID: event.ID,
		Draft:   draft,
		State:   FormEditing,
	}
}

// EventID returns the id of the event being edited.
func (f *EventForm) EventID() string { return f.eventID }

// SetField updates one draft field without validating it.
func (f *EventForm) SetField(name, value string) error {
	if !f.Draft.Set(name, value) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Submit validates the draft and, if every field is filled, sends it. The draft is never
// modified by Submit.
func (f *EventForm) Submit(ctx context.Context) (Outcome, error) {
	f.State = FormSubmitting
	f.Message = ""

	if err := f.Draft.Validate(); err != nil {
		f.State = FormEditing
		f.Message = MsgFillAllFields
		return Outcome{}, err
	}

	event, err := f.svc.UpdateEvent(ctx, f.eventID, f.Draft)
	if err != nil {
		f.State = FormEditing
		f.Message = MsgSomethingWrong
		return Outcome{}, err
	}

	f.State = FormNavigating
	return Outcome{Redirect: "/events/" + url.PathEscape(event.Slug), Event: event}, nil
}

// DraftDate reduces a stored date or timestamp to YYYY-MM-DD. Values it cannot read are
// returned unchanged.
func DraftDate(stored string) string {
	if t, err := time.Parse(time.RFC3339Nano, stored); err == nil {
		return t.Format(draftDateLayout)
	}
	if len(stored) >= draftDatePrefixLen {
		if t, err := time.Parse(draftDateLayout, stored[:draftDatePrefixLen]); err == nil {
			return t.Format(draftDateLayout)
		}
	}
	return stored
}
