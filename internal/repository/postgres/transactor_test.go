package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"communityevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransactor(t *testing.T, maxTries uint) (*transactor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &transactor{
		db:              db,
		maxTries:        maxTries,
		initialInterval: time.Millisecond,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, mock
}

func lockEvent(ctx context.Context, repos domain.Repositories) error {
	_, err := repos.Events.GetByIDForUpdate(ctx, "ev-1")
	return err
}

func TestTransactor_Commit(t *testing.T) {
	tx, mock := newTestTransactor(t, 3)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("ev-1").WillReturnRows(eventRow("ev-1", 1, 0, "PUBLISHED"))
	mock.ExpectCommit()

	require.NoError(t, tx.WithinTx(context.Background(), lockEvent))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RollbackOnError(t *testing.T) {
	tx, mock := newTestTransactor(t, 3)
	mock.ExpectBegin()
	mock.ExpectRollback()

	calls := 0
	err := tx.WithinTx(context.Background(), func(ctx context.Context, repos domain.Repositories) error {
		calls++
		return domain.ErrCapacityExceeded
	})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 1, calls, "domain errors are not retried")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RetriesTransientConflict(t *testing.T) {
	tx, mock := newTestTransactor(t, 3)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("ev-1").WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("ev-1").WillReturnRows(eventRow("ev-1", 1, 0, "PUBLISHED"))
	mock.ExpectCommit()

	require.NoError(t, tx.WithinTx(context.Background(), lockEvent))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RetriesCommitSerializationFailure(t *testing.T) {
	tx, mock := newTestTransactor(t, 2)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := tx.WithinTx(context.Background(), func(ctx context.Context, repos domain.Repositories) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RetriesExhausted(t *testing.T) {
	tx, mock := newTestTransactor(t, 2)
	for range 2 {
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs("ev-1").WillReturnError(&pq.Error{Code: "55P03"})
		mock.ExpectRollback()
	}

	err := tx.WithinTx(context.Background(), lockEvent)
	require.ErrorIs(t, err, ErrRetriesExhausted)
	var perr *pq.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pq.ErrorCode("55P03"), perr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
