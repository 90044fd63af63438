package domain

import (
	"encoding/json"
	"fmt"
)

// Capacity is the participant ledger of an event. The confirmed counter is only
// changed through TryReserve and Release, which keep confirmed <= limit whenever
// limit > 0. A zero limit means unlimited.
type Capacity struct {
	limit     int
	confirmed int
}

// NewCapacity builds a ledger from stored values and rejects values that break the invariant.
func NewCapacity(limit, confirmed int) (Capacity, error) {
	if limit < 0 || confirmed < 0 {
		return Capacity{}, fmt.Errorf("%w: negative capacity values", ErrInvalidInput)
	}
	if limit > 0 && confirmed > limit {
		return Capacity{}, fmt.Errorf("%w: confirmed requests %d exceed participant limit %d", ErrInvalidInput, confirmed, limit)
	}
	return Capacity{limit: limit, confirmed: confirmed}, nil
}

// Limit returns the participant limit (0 = unlimited).
func (c Capacity) Limit() int { return c.limit }

// Confirmed returns the number of confirmed participants.
func (c Capacity) Confirmed() int { return c.confirmed }

// Unlimited reports whether the event has no participant limit.
func (c Capacity) Unlimited() bool { return c.limit == 0 }

// Full reports whether no further participant can be confirmed.
func (c Capacity) Full() bool { return c.limit > 0 && c.confirmed >= c.limit }

// TryReserve confirms n more participants. It is all-or-nothing: when the limit
// would be exceeded the ledger is left untouched and ErrCapacityExceeded is returned.
func (c *Capacity) TryReserve(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: cannot reserve %d places", ErrInvalidInput, n)
	}
	if c.limit > 0 && c.confirmed+n > c.limit {
		return ErrCapacityExceeded
	}
	c.confirmed += n
	return nil
}

// Release gives back n confirmed places, never going below zero.
func (c *Capacity) Release(n int) {
	if n <= 0 {
		return
	}
	c.confirmed -= n
	if c.confirmed < 0 {
		c.confirmed = 0
	}
}

// SetLimit changes the participant limit. A positive limit below the confirmed count is rejected.
func (c *Capacity) SetLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: participant limit must not be negative", ErrInvalidInput)
	}
	if limit > 0 && limit < c.confirmed {
		return fmt.Errorf("%w: participant limit %d is below %d confirmed requests", ErrInvalidInput, limit, c.confirmed)
	}
	c.limit = limit
	return nil
}

type capacityJSON struct {
	ParticipantLimit  int `json:"participant_limit"`
	ConfirmedRequests int `json:"confirmed_requests"`
}

// MarshalJSON implements json.Marshaler.
func (c Capacity) MarshalJSON() ([]byte, error) {
	return json.Marshal(capacityJSON{ParticipantLimit: c.limit, ConfirmedRequests: c.confirmed})
}
