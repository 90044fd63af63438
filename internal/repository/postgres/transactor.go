package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"communityevents/internal/domain"

	"github.com/cenkalti/backoff/v5"
	"github.com/lib/pq"
)

// Postgres error codes that mean the transaction lost a conflict and may succeed when rerun.
var transientCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// ErrRetriesExhausted is returned when every attempt ended in a transient conflict.
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

type transactor struct {
	db              *sql.DB
	maxTries        uint
	initialInterval time.Duration
	logger          *slog.Logger
}

// NewTransactor returns a domain.Transactor running each unit of work in a
// READ COMMITTED transaction and retrying transient conflicts up to maxTries times.
func NewTransactor(db *sql.DB, maxTries int, logger *slog.Logger) domain.Transactor {
	if maxTries < 1 {
		maxTries = 1
	}
	return &transactor{
		db:              db,
		maxTries:        uint(maxTries),
		initialInterval: 20 * time.Millisecond,
		logger:          logger,
	}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.initialInterval
	b.MaxInterval = 50 * t.initialInterval

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := t.runOnce(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !isTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		t.logger.WarnContext(ctx, "transaction conflict", "attempt", attempt, "error", err)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(t.maxTries))
	if err != nil && isTransient(err) {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
	}
	return err
}

func (t *transactor) runOnce(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			t.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isTransient(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && transientCodes[perr.Code]
}
