package pledge

import "context"

// EntityStore describes the persistence operations the action service needs.
// Owner-scoped methods take an ownerID filter: the empty string means "no
// filter" (admin view), anything else narrows the statement to rows owned by
// that user. Scoping is part of the statement itself so that authorization and
// mutation are a single atomic operation.
type EntityStore interface {
	// CreateCause stores the cause together with its contact.
	CreateCause(ctx context.Context, cause Cause, contact Contact) (Cause, error)
	GetCause(ctx context.Context, id string) (Cause, error)
	ListCauses(ctx context.Context) ([]Cause, error)
	// ListAvailableCauses returns causes the given user has no promise against.
	ListAvailableCauses(ctx context.Context, userID string) ([]Cause, error)
	// ListCausesPromised returns distinct causes with at least one promise.
	ListCausesPromised(ctx context.Context) ([]Cause, error)
	UpdateCause(ctx context.Context, id string, upd CauseUpdate) (Cause, error)
	// DeleteCause removes the cause, its promises and its contact.
	DeleteCause(ctx context.Context, id string) error
	GetContact(ctx context.Context, id string) (Contact, error)

	// CreatePromise fails with ErrConflict when the (cause, user) pair already
	// exists and ErrNotFound when the cause is absent.
	CreatePromise(ctx context.Context, p Promise) (Promise, error)
	GetPromise(ctx context.Context, id, ownerID string) (Promise, error)
	ListPromises(ctx context.Context, ownerID string) ([]Promise, error)
	ListPromisesByCause(ctx context.Context, causeID string) ([]Promise, error)
	// PromisesForCauseUser returns the zero-or-one promise by user on cause.
	PromisesForCauseUser(ctx context.Context, causeID, userID string) ([]Promise, error)
	// UpdatePromise and DeletePromise report rows affected; zero is not an
	// error, it is how non-owned or absent ids surface.
	UpdatePromise(ctx context.Context, id, ownerID string, upd PromiseUpdate) (int64, error)
	DeletePromise(ctx context.Context, id, ownerID string) (int64, error)

	// Aggregates order descending by the aggregate, ties broken by cause id
	// ascending; causes without promises aggregate to zero.
	TopCausesByAmount(ctx context.Context, limit int) ([]CauseTotal, error)
	TopCausesByPromises(ctx context.Context, limit int) ([]CauseTotal, error)
}
