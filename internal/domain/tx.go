package domain

import "context"

// Repositories groups the storage ports bound to one connection or transaction.
type Repositories struct {
	Events   EventRepository
	Requests RequestRepository
	Comments CommentRepository
	Users    UserRepository
}

// Transactor runs fn as one atomic unit. Every read, check and write done through
// the given repositories commits together or not at all. Implementations may call
// fn more than once when storage reports a transient conflict, so fn must not have
// side effects outside the repositories.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
