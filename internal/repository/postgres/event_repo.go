package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"communityevents/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const eventColumns = `id, title, annotation, description, category_id, event_date, paid,
	location_lat, location_lon, participant_limit, confirmed_requests,
	request_moderation, comment_moderation, state, created_on, published_on, initiator_id`

type eventRepository struct {
	DB DBTX
}

func NewEventRepository(db DBTX) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var limit, confirmed int
	var state string
	var publishedOn sql.NullTime
	err := row.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.EventDate, &e.Paid,
		&e.Location.Lat, &e.Location.Lon, &limit, &confirmed,
		&e.RequestModeration, &e.CommentModeration, &state, &e.CreatedOn, &publishedOn, &e.InitiatorID,
	)
	if err != nil {
		return nil, err
	}
	if e.Capacity, err = domain.NewCapacity(limit, confirmed); err != nil {
		return nil, fmt.Errorf("event %s: %w", e.ID, err)
	}
	if e.State, err = domain.ParseEventState(state); err != nil {
		return nil, fmt.Errorf("event %s: %w", e.ID, err)
	}
	if publishedOn.Valid {
		e.PublishedOn = &publishedOn.Time
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	id := uuid.NewString()
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.DB.ExecContext(ctx, query,
		id, e.Title, e.Annotation, e.Description, e.CategoryID, e.EventDate, e.Paid,
		e.Location.Lat, e.Location.Lon, e.Capacity.Limit(), e.Capacity.Confirmed(),
		e.RequestModeration, e.CommentModeration, string(e.State), e.CreatedOn, e.PublishedOn, e.InitiatorID,
	)
	if err != nil {
		return translateInsert(err)
	}
	e.ID = id
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *eventRepository) get(ctx context.Context, query, id string) (*domain.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET
			title = $2, annotation = $3, description = $4, category_id = $5, event_date = $6, paid = $7,
			location_lat = $8, location_lon = $9, participant_limit = $10, confirmed_requests = $11,
			request_moderation = $12, comment_moderation = $13, state = $14, published_on = $15
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Annotation, e.Description, e.CategoryID, e.EventDate, e.Paid,
		e.Location.Lat, e.Location.Lon, e.Capacity.Limit(), e.Capacity.Confirmed(),
		e.RequestModeration, e.CommentModeration, string(e.State), e.PublishedOn,
	)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r *eventRepository) ListByInitiatorID(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE initiator_id = $1
		ORDER BY created_on DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, initiatorID, params.Limit(), params.Offset())
}

// Search builds one SELECT from the set fields of q. Empty fields add no condition.
func (r *eventRepository) Search(ctx context.Context, q domain.EventQuery, params domain.PaginationParams) ([]*domain.Event, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(q.InitiatorIDs) > 0 {
		where = append(where, "initiator_id = ANY("+arg(pq.Array(q.InitiatorIDs))+"::uuid[])")
	}
	if len(q.States) > 0 {
		states := make([]string, len(q.States))
		for i, st := range q.States {
			states[i] = string(st)
		}
		where = append(where, "state = ANY("+arg(pq.Array(states))+")")
	}
	if len(q.CategoryIDs) > 0 {
		where = append(where, "category_id = ANY("+arg(pq.Array(q.CategoryIDs))+")")
	}
	if q.Text != "" {
		p := arg("%" + likeEscaper.Replace(q.Text) + "%")
		where = append(where, "(annotation ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if q.Paid != nil {
		where = append(where, "paid = "+arg(*q.Paid))
	}
	if q.DateAfter != nil {
		where = append(where, "event_date > "+arg(*q.DateAfter))
	}
	if q.DateBefore != nil {
		where = append(where, "event_date < "+arg(*q.DateBefore))
	}
	if q.OnlyAvailable {
		where = append(where, "(participant_limit = 0 OR confirmed_requests < participant_limit)")
	}

	var b strings.Builder
	b.WriteString("SELECT " + eventColumns + " FROM events")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.OrderByEventDate {
		b.WriteString(" ORDER BY event_date ASC, id")
	} else {
		b.WriteString(" ORDER BY created_on DESC, id")
	}
	b.WriteString(" LIMIT " + arg(params.Limit()) + " OFFSET " + arg(params.Offset()))
	return r.list(ctx, b.String(), args...)
}

// likeEscaper quotes LIKE wildcards so text is matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
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
