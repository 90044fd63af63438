package domain

import "context"

// ViewCounter reports how many times each event page was viewed. It is used for
// presentation only and never consulted by capacity logic.
type ViewCounter interface {
	Views(ctx context.Context, eventIDs []string) (map[string]int64, error)
}

// HitRecorder records one view of a public page.
type HitRecorder interface {
	RecordHit(ctx context.Context, uri, ip string) error
}

// EventURI is the public path of an event page, the key the stats service counts views by.
func EventURI(eventID string) string {
	return "/events/" + eventID
}
