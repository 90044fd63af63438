package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"communityevents/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const requestColumns = `id, event_id, requester_id, status, created`

type requestRepository struct {
	DB DBTX
}

func NewRequestRepository(db DBTX) domain.RequestRepository {
	return &requestRepository{
		DB: db,
	}
}

func scanRequest(row rowScanner) (*domain.ParticipationRequest, error) {
	req := &domain.ParticipationRequest{}
	var status string
	if err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &status, &req.Created); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}

func (r *requestRepository) Create(ctx context.Context, req *domain.ParticipationRequest) error {
	id := uuid.NewString()
	query := `
		INSERT INTO participation_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, id, req.EventID, req.RequesterID, string(req.Status), req.Created)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRequest
		}
		return translateInsert(err)
	}
	req.ID = id
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM participation_requests WHERE id = $1`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) ListByIDs(ctx context.Context, eventID string, ids []string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1 AND id = ANY($2::uuid[])
		ORDER BY created
	`
	return r.list(ctx, query, eventID, pq.Array(ids))
}

func (r *requestRepository) FindActive(ctx context.Context, eventID, requesterID string) (*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1 AND requester_id = $2 AND status IN ('PENDING', 'CONFIRMED')
		LIMIT 1
	`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, eventID, requesterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, ids []string, status domain.RequestStatus) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE participation_requests SET status = $1 WHERE id = ANY($2::uuid[])`,
		string(status), pq.Array(ids))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRequest
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return fmt.Errorf("update request status: %d of %d rows: %w", n, len(ids), domain.ErrNotFound)
	}
	return nil
}

func (r *requestRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1
		ORDER BY created
	`
	return r.list(ctx, query, eventID)
}

func (r *requestRepository) ListByRequesterID(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE requester_id = $1
		ORDER BY created DESC
	`
	return r.list(ctx, query, requesterID)
}

func (r *requestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.ParticipationRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := make([]*domain.ParticipationRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
