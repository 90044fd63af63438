package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"communityevents/internal/domain"

	"github.com/google/uuid"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// memStore is an in-memory database. A transaction holds mu for its whole
// duration and restores a snapshot when fn fails, so the store behaves like a
// single serialized connection with rollback.
type memStore struct {
	mu       sync.Mutex
	events   map[string]*domain.Event
	requests map[string]*domain.ParticipationRequest
	comments map[string]*domain.Comment
	users    map[string]*domain.User

	txCount int
	// updateErr, if set, is returned by the next event Update inside a transaction.
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[string]*domain.Event),
		requests: make(map[string]*domain.ParticipationRequest),
		comments: make(map[string]*domain.Comment),
		users:    make(map[string]*domain.User),
	}
}

// repos returns autocommit repositories; each call takes the lock on its own.
func (s *memStore) repos() domain.Repositories { return s.bind(false) }

func (s *memStore) bind(inTx bool) domain.Repositories {
	return domain.Repositories{
		Events:   &memEvents{s: s, inTx: inTx},
		Requests: &memRequests{s: s, inTx: inTx},
		Comments: &memComments{s: s, inTx: inTx},
		Users:    &memUsers{s: s, inTx: inTx},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	events := cloneMap(s.events, cloneEvent)
	requests := cloneMap(s.requests, cloneRequest)
	comments := cloneMap(s.comments, cloneComment)
	if err := fn(ctx, s.bind(true)); err != nil {
		s.events, s.requests, s.comments = events, requests, comments
		return err
	}
	return nil
}

func (s *memStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func cloneMap[V any](m map[string]*V, clone func(*V) *V) map[string]*V {
	out := make(map[string]*V, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func cloneRequest(r *domain.ParticipationRequest) *domain.ParticipationRequest {
	c := *r
	return &c
}

func cloneComment(c *domain.Comment) *domain.Comment {
	x := *c
	return &x
}

// seed helpers

func (s *memStore) addUser(id, email, name string) {
	s.users[id] = &domain.User{ID: id, Email: email, Name: name, CreatedAt: testNow}
}

type eventOpt func(*domain.Event)

func withLimit(limit, confirmed int) eventOpt {
	return func(e *domain.Event) {
		c, err := domain.NewCapacity(limit, confirmed)
		if err != nil {
			panic(err)
		}
		e.Capacity = c
	}
}

func withState(st domain.EventState) eventOpt {
	return func(e *domain.Event) { e.State = st }
}

func withRequestModeration(on bool) eventOpt {
	return func(e *domain.Event) { e.RequestModeration = on }
}

func withCommentModeration(on bool) eventOpt {
	return func(e *domain.Event) { e.CommentModeration = on }
}

func (s *memStore) addEvent(id, initiatorID string, opts ...eventOpt) *domain.Event {
	e := &domain.Event{
		ID:                id,
		Title:             "Go meetup " + id,
		Annotation:        "Monthly gathering of gophers in the city",
		Description:       "Talks, pizza and a lot of questions about generics",
		CategoryID:        "cat-1",
		EventDate:         testNow.Add(72 * time.Hour),
		RequestModeration: true,
		CommentModeration: true,
		State:             domain.EventStatePublished,
		CreatedOn:         testNow.Add(-time.Hour),
		InitiatorID:       initiatorID,
	}
	for _, o := range opts {
		o(e)
	}
	s.events[id] = e
	return cloneEvent(e)
}

func (s *memStore) addRequest(id, eventID, requesterID string, status domain.RequestStatus) {
	s.requests[id] = &domain.ParticipationRequest{ID: id, EventID: eventID, RequesterID: requesterID, Status: status, Created: testNow}
}

func (s *memStore) addComment(id, eventID, authorID string, status domain.CommentStatus) {
	s.comments[id] = &domain.Comment{ID: id, EventID: eventID, AuthorID: authorID, Text: "text " + id, Status: status, Created: testNow}
}

func (s *memStore) event(id string) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEvent(s.events[id])
}

func (s *memStore) request(id string) *domain.ParticipationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRequest(s.requests[id])
}

func (s *memStore) comment(id string) *domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.comments[id]; ok {
		return cloneComment(c)
	}
	return nil
}

func (s *memStore) countRequests(eventID string, status domain.RequestStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.EventID == eventID && r.Status == status {
			n++
		}
	}
	return n
}

type memEvents struct {
	s    *memStore
	inTx bool
}

func (r *memEvents) Create(ctx context.Context, e *domain.Event) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.users[e.InitiatorID]; !ok {
		return domain.ErrNotFound
	}
	e.ID = uuid.NewString()
	r.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *memEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	defer r.s.lock(r.inTx)()
	if e, ok := r.s.events[id]; ok {
		return cloneEvent(e), nil
	}
	return nil, domain.ErrNotFound
}

func (r *memEvents) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	if !r.inTx {
		return nil, errors.New("GetByIDForUpdate outside transaction")
	}
	return r.GetByID(ctx, id)
}

func (r *memEvents) Update(ctx context.Context, e *domain.Event) error {
	defer r.s.lock(r.inTx)()
	if r.inTx && r.s.updateErr != nil {
		err := r.s.updateErr
		r.s.updateErr = nil
		return err
	}
	if _, ok := r.s.events[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *memEvents) ListByInitiatorID(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.Event, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*domain.Event, 0)
	for _, e := range r.s.events {
		if e.InitiatorID == initiatorID {
			out = append(out, cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	offset := params.Offset()
	if offset >= len(out) {
		return []*domain.Event{}, nil
	}
	end := min(offset+params.Limit(), len(out))
	return out[offset:end], nil
}

func (r *memEvents) Search(ctx context.Context, q domain.EventQuery, params domain.PaginationParams) ([]*domain.Event, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*domain.Event, 0)
	for _, e := range r.s.events {
		if matchesQuery(q, e) {
			out = append(out, cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.OrderByEventDate {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].CreatedOn.After(out[j].CreatedOn)
	})
	offset := params.Offset()
	if offset >= len(out) {
		return []*domain.Event{}, nil
	}
	return out[offset:min(offset+params.Limit(), len(out))], nil
}

func matchesQuery(q domain.EventQuery, e *domain.Event) bool {
	text := strings.ToLower(q.Text)
	switch {
	case len(q.InitiatorIDs) > 0 && !slices.Contains(q.InitiatorIDs, e.InitiatorID),
		len(q.States) > 0 && !slices.Contains(q.States, e.State),
		len(q.CategoryIDs) > 0 && !slices.Contains(q.CategoryIDs, e.CategoryID),
		text != "" && !strings.Contains(strings.ToLower(e.Annotation), text) && !strings.Contains(strings.ToLower(e.Description), text),
		q.Paid != nil && e.Paid != *q.Paid,
		q.DateAfter != nil && !e.EventDate.After(*q.DateAfter),
		q.DateBefore != nil && !e.EventDate.Before(*q.DateBefore),
		q.OnlyAvailable && e.Capacity.Full():
		return false
	}
	return true
}

type memRequests struct {
	s    *memStore
	inTx bool
}

func (r *memRequests) Create(ctx context.Context, req *domain.ParticipationRequest) error {
	defer r.s.lock(r.inTx)()
	for _, other := range r.s.requests {
		if other.EventID == req.EventID && other.RequesterID == req.RequesterID && other.Status.Active() {
			return domain.ErrDuplicateRequest
		}
	}
	req.ID = uuid.NewString()
	r.s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *memRequests) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	defer r.s.lock(r.inTx)()
	if req, ok := r.s.requests[id]; ok {
		return cloneRequest(req), nil
	}
	return nil, domain.ErrNotFound
}

func (r *memRequests) ListByIDs(ctx context.Context, eventID string, ids []string) ([]*domain.ParticipationRequest, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*domain.ParticipationRequest, 0, len(ids))
	for _, id := range ids {
		if req, ok := r.s.requests[id]; ok && req.EventID == eventID {
			out = append(out, cloneRequest(req))
		}
	}
	return out, nil
}

func (r *memRequests) FindActive(ctx context.Context, eventID, requesterID string) (*domain.ParticipationRequest, error) {
	defer r.s.lock(r.inTx)()
	for _, req := range r.s.requests {
		if req.EventID == eventID && req.RequesterID == requesterID && req.Status.Active() {
			return cloneRequest(req), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRequests) UpdateStatus(ctx context.Context, ids []string, status domain.RequestStatus) error {
	defer r.s.lock(r.inTx)()
	for _, id := range ids {
		req, ok := r.s.requests[id]
		if !ok {
			return domain.ErrNotFound
		}
		req.Status = status
	}
	return nil
}

func (r *memRequests) ListByEventID(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	return r.filter(func(req *domain.ParticipationRequest) bool { return req.EventID == eventID }), nil
}

func (r *memRequests) ListByRequesterID(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	return r.filter(func(req *domain.ParticipationRequest) bool { return req.RequesterID == requesterID }), nil
}

func (r *memRequests) filter(keep func(*domain.ParticipationRequest) bool) []*domain.ParticipationRequest {
	defer r.s.lock(r.inTx)()
	out := make([]*domain.ParticipationRequest, 0)
	for _, id := range slices.Sorted(maps.Keys(r.s.requests)) {
		if req := r.s.requests[id]; keep(req) {
			out = append(out, cloneRequest(req))
		}
	}
	return out
}

type memComments struct {
	s    *memStore
	inTx bool
}

func (r *memComments) Create(ctx context.Context, c *domain.Comment) error {
	defer r.s.lock(r.inTx)()
	c.ID = uuid.NewString()
	r.s.comments[c.ID] = cloneComment(c)
	return nil
}

func (r *memComments) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	defer r.s.lock(r.inTx)()
	if c, ok := r.s.comments[id]; ok {
		return cloneComment(c), nil
	}
	return nil, domain.ErrNotFound
}

func (r *memComments) Update(ctx context.Context, c *domain.Comment) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.comments[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.comments[c.ID] = cloneComment(c)
	return nil
}

func (r *memComments) ListByIDs(ctx context.Context, eventID string, ids []string) ([]*domain.Comment, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.comments[id]; ok && c.EventID == eventID {
			out = append(out, cloneComment(c))
		}
	}
	return out, nil
}

func (r *memComments) UpdateStatus(ctx context.Context, ids []string, status domain.CommentStatus) error {
	defer r.s.lock(r.inTx)()
	for _, id := range ids {
		c, ok := r.s.comments[id]
		if !ok {
			return domain.ErrNotFound
		}
		c.Status = status
	}
	return nil
}

func (r *memComments) Delete(ctx context.Context, id string) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r *memComments) ListByEventID(ctx context.Context, eventID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
	return r.filter(func(c *domain.Comment) bool { return c.EventID == eventID }, filter), nil
}

func (r *memComments) ListByAuthorID(ctx context.Context, authorID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
	return r.filter(func(c *domain.Comment) bool { return c.AuthorID == authorID }, filter), nil
}

func (r *memComments) filter(keep func(*domain.Comment) bool, f domain.CommentFilter) []*domain.Comment {
	defer r.s.lock(r.inTx)()
	out := make([]*domain.Comment, 0)
	for _, id := range slices.Sorted(maps.Keys(r.s.comments)) {
		c := r.s.comments[id]
		if !keep(c) || (f.Status != nil && c.Status != *f.Status) {
			continue
		}
		out = append(out, cloneComment(c))
	}
	return out
}

type memUsers struct {
	s    *memStore
	inTx bool
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.lock(r.inTx)()
	if u, ok := r.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memUsers) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

// fakeViews implements domain.ViewCounter.
type fakeViews struct {
	views map[string]int64
	err   error
	calls int
}

func (f *fakeViews) Views(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.views, nil
}

// fakeEmailService records decision emails.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.RequestDecisionEmailData
	err  error
}

func (f *fakeEmailService) SendRequestDecision(ctx context.Context, data *domain.RequestDecisionEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}
