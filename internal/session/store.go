// Package session persists the two pieces of durable local state the
// storefront keeps: the bearer token and the active-order id. The store is
// scoped to the local profile, not to an authenticated user, so a stale id
// left by another session is possible and is the resolver's problem.
package session

import "context"

const (
	keyActiveOrderID = "active_order_id"
	keyAccessToken   = "access_token"
)

// Store holds the persisted session state. Implementations perform no
// validation; the resolver decides whether a stored order id is still usable.
type Store interface {
	ActiveOrderID(ctx context.Context) (string, error)
	SetActiveOrderID(ctx context.Context, id string) error
	ClearActiveOrderID(ctx context.Context) error

	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error

	Close() error
}
