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

const commentColumns = `id, event_id, author_id, text, status, created, edited`

type commentRepository struct {
	DB DBTX
}

func NewCommentRepository(db DBTX) domain.CommentRepository {
	return &commentRepository{
		DB: db,
	}
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	c := &domain.Comment{}
	var status string
	var edited sql.NullTime
	if err := row.Scan(&c.ID, &c.EventID, &c.AuthorID, &c.Text, &status, &c.Created, &edited); err != nil {
		return nil, err
	}
	c.Status = domain.CommentStatus(status)
	if edited.Valid {
		c.Edited = &edited.Time
	}
	return c, nil
}

// statusArg turns an optional filter into a nullable query argument.
func statusArg(f domain.CommentFilter) any {
	if f.Status == nil {
		return nil
	}
	return string(*f.Status)
}

func (r *commentRepository) Create(ctx context.Context, c *domain.Comment) error {
	id := uuid.NewString()
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, id, c.EventID, c.AuthorID, c.Text, string(c.Status), c.Created, c.Edited)
	if err != nil {
		return translateInsert(err)
	}
	c.ID = id
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *commentRepository) Update(ctx context.Context, c *domain.Comment) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE comments SET text = $2, status = $3, edited = $4 WHERE id = $1`,
		c.ID, c.Text, string(c.Status), c.Edited)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r *commentRepository) ListByIDs(ctx context.Context, eventID string, ids []string) ([]*domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE event_id = $1 AND id = ANY($2::uuid[])
		ORDER BY created
	`
	return r.list(ctx, query, eventID, pq.Array(ids))
}

func (r *commentRepository) UpdateStatus(ctx context.Context, ids []string, status domain.CommentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE comments SET status = $1 WHERE id = ANY($2::uuid[])`,
		string(status), pq.Array(ids))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return fmt.Errorf("update comment status: %d of %d rows: %w", n, len(ids), domain.ErrNotFound)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r *commentRepository) ListByEventID(ctx context.Context, eventID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE event_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created
	`
	return r.list(ctx, query, eventID, statusArg(filter))
}

func (r *commentRepository) ListByAuthorID(ctx context.Context, authorID string, filter domain.CommentFilter) ([]*domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE author_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created DESC
	`
	return r.list(ctx, query, authorID, statusArg(filter))
}

func (r *commentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
