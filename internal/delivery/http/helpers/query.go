package helpers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"communityevents/internal/domain"
)

// legacyTimeLayout is accepted next to RFC 3339 for range bounds.
const legacyTimeLayout = "2006-01-02 15:04:05"

// QueryList returns the values of a repeated or comma-separated parameter,
// so ?states=PENDING&states=PUBLISHED and ?states=PENDING,PUBLISHED agree.
// Blank entries are dropped.
func QueryList(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// QueryTime parses an optional timestamp. A value without a zone is read as UTC.
func QueryTime(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.ParseInLocation(legacyTimeLayout, raw, time.UTC)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp, got %q", domain.ErrInvalidInput, name, raw)
	}
	t = t.UTC()
	return &t, nil
}

// QueryBool parses an optional boolean. A missing parameter is nil.
func QueryBool(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false, got %q", domain.ErrInvalidInput, name, raw)
	}
	return &b, nil
}
