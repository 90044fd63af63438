package domain

import (
	"fmt"
	"time"
)

// EventsURI is the public catalogue path, counted by the stats service like an event page.
const EventsURI = "/events"

// EventSort orders the public catalogue.
type EventSort string

const (
	SortByEventDate EventSort = "EVENT_DATE"
	SortByViews     EventSort = "VIEWS"
)

// ParseEventSort accepts an empty value (newest first) or one of the sort keys.
func ParseEventSort(s string) (EventSort, error) {
	switch st := EventSort(s); st {
	case "", SortByEventDate, SortByViews:
		return st, nil
	}
	return "", fmt.Errorf("%w: sort must be EVENT_DATE or VIEWS, got %q", ErrInvalidInput, s)
}

// DateRange bounds event dates, both ends exclusive. A nil end is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Validate rejects a range whose start is after its end.
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return fmt.Errorf("%w: range start must not be after range end", ErrInvalidInput)
	}
	return nil
}

// Open reports whether neither end is set.
func (r DateRange) Open() bool { return r.Start == nil && r.End == nil }

// AdminEventFilter selects events for admin review. Empty fields match every event.
type AdminEventFilter struct {
	InitiatorIDs []string
	States       []EventState
	CategoryIDs  []string
	Range        DateRange
}

// PublicEventFilter selects published events for the catalogue. Without a
// range only events that have not started yet are listed.
type PublicEventFilter struct {
	// Text matches annotation or description, case-insensitively.
	Text        string
	CategoryIDs []string
	Paid        *bool
	Range       DateRange
	// OnlyAvailable drops events whose capacity ledger is full.
	OnlyAvailable bool
	Sort          EventSort
}

// EventQuery is the storage selection both listings are built on.
type EventQuery struct {
	InitiatorIDs     []string
	States           []EventState
	CategoryIDs      []string
	Text             string
	Paid             *bool
	DateAfter        *time.Time
	DateBefore       *time.Time
	OnlyAvailable    bool
	OrderByEventDate bool
}

// AdminQuery builds the storage query for f.
func (f AdminEventFilter) AdminQuery() (EventQuery, error) {
	if err := f.Range.Validate(); err != nil {
		return EventQuery{}, err
	}
	return EventQuery{
		InitiatorIDs: f.InitiatorIDs,
		States:       f.States,
		CategoryIDs:  f.CategoryIDs,
		DateAfter:    f.Range.Start,
		DateBefore:   f.Range.End,
	}, nil
}

// PublicQuery builds the storage query for f, restricted to PUBLISHED events.
func (f PublicEventFilter) PublicQuery(now time.Time) (EventQuery, error) {
	if err := f.Range.Validate(); err != nil {
		return EventQuery{}, err
	}
	q := EventQuery{
		States:           []EventState{EventStatePublished},
		CategoryIDs:      f.CategoryIDs,
		Text:             f.Text,
		Paid:             f.Paid,
		DateAfter:        f.Range.Start,
		DateBefore:       f.Range.End,
		OnlyAvailable:    f.OnlyAvailable,
		OrderByEventDate: f.Sort == SortByEventDate,
	}
	if f.Range.Open() {
		q.DateAfter = &now
	}
	return q, nil
}
