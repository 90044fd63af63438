package postgres

import (
	"context"
	"database/sql"
	"testing"

	"communityevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requestColumnNames = []string{"id", "event_id", "requester_id", "status", "created"}

func TestRequestRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO participation_requests`).
					WithArgs(sqlmock.AnyArg(), "ev-1", "user-2", "PENDING", created).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "active request already exists",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO participation_requests`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrDuplicateRequest,
		},
		{
			name: "unknown requester",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO participation_requests`).
					WillReturnError(&pq.Error{Code: "23503", Constraint: "participation_requests_requester_id_fkey"})
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			req := domain.NewParticipationRequest("ev-1", "user-2", domain.RequestStatusPending, created)
			err = NewRequestRepository(db).Create(ctx, req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, req.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRequestRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM participation_requests WHERE id = \$1`).
		WithArgs("req-x").
		WillReturnError(sql.ErrNoRows)

	_, err = NewRequestRepository(db).GetByID(context.Background(), "req-x")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_ListByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ids := []string{"req-1", "req-2"}
	mock.ExpectQuery(`WHERE event_id = \$1 AND id = ANY\(\$2::uuid\[\]\)`).
		WithArgs("ev-1", pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows(requestColumnNames).
			AddRow("req-1", "ev-1", "user-2", "PENDING", created).
			AddRow("req-2", "ev-1", "user-3", "CONFIRMED", created))

	reqs, err := NewRequestRepository(db).ListByIDs(context.Background(), "ev-1", ids)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, domain.RequestStatusPending, reqs[0].Status)
	assert.Equal(t, domain.RequestStatusConfirmed, reqs[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_FindActive(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`status IN \('PENDING', 'CONFIRMED'\)`).
			WithArgs("ev-1", "user-2").
			WillReturnRows(sqlmock.NewRows(requestColumnNames).AddRow("req-1", "ev-1", "user-2", "CONFIRMED", created))

		req, err := NewRequestRepository(db).FindActive(ctx, "ev-1", "user-2")
		require.NoError(t, err)
		assert.Equal(t, "req-1", req.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`status IN \('PENDING', 'CONFIRMED'\)`).
			WithArgs("ev-1", "user-2").
			WillReturnRows(sqlmock.NewRows(requestColumnNames))

		_, err = NewRequestRepository(db).FindActive(ctx, "ev-1", "user-2")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	ids := []string{"req-1", "req-2"}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "all rows updated",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE participation_requests SET status = \$1`).
					WithArgs("CONFIRMED", pq.Array(ids)).
					WillReturnResult(sqlmock.NewResult(0, 2))
			},
		},
		{
			name: "missing row",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE participation_requests SET status = \$1`).
					WithArgs("CONFIRMED", pq.Array(ids)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewRequestRepository(db).UpdateStatus(ctx, ids, domain.RequestStatusConfirmed)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRequestRepository_ListByRequesterID_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE requester_id = \$1`).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows(requestColumnNames))

	reqs, err := NewRequestRepository(db).ListByRequesterID(context.Background(), "user-2")
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)
	require.NoError(t, mock.ExpectationsWereMet())
}
