package shared

import "context"

// UnitOfWork runs a function atomically. Repository calls made with the
// context passed to fn join the same database transaction; if fn
// returns an error everything rolls back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
