package pledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"causebook.org/internal/ids"
)

// Actions executes domain operations within the context of one identity. It is
// a stateless façade over the entity store, constructed per request; every
// method authorizes against the bound identity before touching storage.
type Actions struct {
	identity Identity
	store    EntityStore
	now      func() time.Time
}

// ActionsOption configures an Actions instance.
type ActionsOption func(*Actions)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ActionsOption {
	return func(a *Actions) {
		if fn != nil {
			a.now = fn
		}
	}
}

// NewActions binds an action service to the calling identity.
func NewActions(store EntityStore, identity Identity, opts ...ActionsOption) *Actions {
	a := &Actions{identity: identity, store: store, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Identity returns the identity the service is bound to.
func (a *Actions) Identity() Identity { return a.identity }

// CreateCause stores a new cause with the caller as creator. Admin only.
// Client-supplied identifier and creator fields are discarded.
func (a *Actions) CreateCause(ctx context.Context, input CauseInput) (Cause, error) {
	if _, err := a.identity.authorize(opCreateCause); err != nil {
		return Cause{}, err
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Cause{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.TargetAmount < 0 {
		return Cause{}, fmt.Errorf("%w: target_amount must be >= 0", ErrInvalidInput)
	}
	contact, err := a.buildContact(input.Contact)
	if err != nil {
		return Cause{}, err
	}

	now := a.now().UTC()
	expiration := input.ExpirationDate
	if expiration.IsZero() {
		expiration = Tomorrow(a.now)
	}
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	cause := Cause{
		ID:             ids.New(),
		Title:          input.Title,
		Description:    input.Description,
		Illustration:   strings.TrimSpace(input.Illustration),
		ContactID:      contact.ID,
		ExpirationDate: expiration,
		TargetAmount:   input.TargetAmount,
		CreatorID:      a.identity.UserID,
		Enabled:        enabled,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	return a.store.CreateCause(ctx, cause, contact)
}

// ListCauses returns all causes. Open to anonymous callers.
func (a *Actions) ListCauses(ctx context.Context) ([]Cause, error) {
	if _, err := a.identity.authorize(opListCauses); err != nil {
		return nil, err
	}
	return a.store.ListCauses(ctx)
}

// ListAvailableCauses returns causes the caller has not yet promised against.
// For anonymous callers "available" is undefined, so it falls back to the full
// list.
func (a *Actions) ListAvailableCauses(ctx context.Context) ([]Cause, error) {
	if _, err := a.identity.authorize(opListAvailableCauses); err != nil {
		return nil, err
	}
	if a.identity.Role() == RoleAnonymous {
		return a.store.ListCauses(ctx)
	}
	return a.store.ListAvailableCauses(ctx, a.identity.UserID)
}

// GetCause returns a cause by id. Open to anonymous callers.
func (a *Actions) GetCause(ctx context.Context, id string) (Cause, error) {
	if _, err := a.identity.authorize(opGetCause); err != nil {
		return Cause{}, err
	}
	return a.store.GetCause(ctx, id)
}

// GetCauseContact returns the contact fronting a cause.
func (a *Actions) GetCauseContact(ctx context.Context, causeID string) (Contact, error) {
	if _, err := a.identity.authorize(opGetCause); err != nil {
		return Contact{}, err
	}
	cause, err := a.store.GetCause(ctx, causeID)
	if err != nil {
		return Contact{}, err
	}
	return a.store.GetContact(ctx, cause.ContactID)
}

// UpdateCause applies a partial update. Admin only.
func (a *Actions) UpdateCause(ctx context.Context, id string, upd CauseUpdate) (Cause, error) {
	if _, err := a.identity.authorize(opUpdateCause); err != nil {
		return Cause{}, err
	}
	if upd.TargetAmount != nil && *upd.TargetAmount < 0 {
		return Cause{}, fmt.Errorf("%w: target_amount must be >= 0", ErrInvalidInput)
	}
	if upd.Title != nil {
		trimmed := strings.TrimSpace(*upd.Title)
		upd.Title = &trimmed
	}
	return a.store.UpdateCause(ctx, id, upd)
}

// DeleteCause removes a cause, cascading to its promises and contact. Admin
// only.
func (a *Actions) DeleteCause(ctx context.Context, id string) error {
	if _, err := a.identity.authorize(opDeleteCause); err != nil {
		return err
	}
	return a.store.DeleteCause(ctx, id)
}

// AddPromiseToCause records the caller's pledge against a cause. One promise
// per (cause, user) pair; a second attempt surfaces ErrConflict from the
// storage uniqueness constraint.
func (a *Actions) AddPromiseToCause(ctx context.Context, causeID string, input PromiseInput) (Promise, error) {
	if _, err := a.identity.authorize(opAddPromise); err != nil {
		return Promise{}, err
	}
	causeID = strings.TrimSpace(causeID)
	if causeID == "" {
		return Promise{}, fmt.Errorf("%w: cause id is required", ErrInvalidInput)
	}
	if input.Amount <= 0 {
		return Promise{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}
	target := input.TargetDate
	if target.IsZero() {
		target = Tomorrow(a.now)
	}
	now := a.now().UTC()
	return a.store.CreatePromise(ctx, Promise{
		ID:         ids.New(),
		CauseID:    causeID,
		UserID:     a.identity.UserID,
		Amount:     input.Amount,
		TargetDate: target,
		CreatedAt:  now,
		ModifiedAt: now,
	})
}

// ListPromises returns every promise for admins, own promises for members.
func (a *Actions) ListPromises(ctx context.Context) ([]Promise, error) {
	owner, err := a.identity.authorize(opListPromises)
	if err != nil {
		return nil, err
	}
	return a.store.ListPromises(ctx, owner)
}

// GetPromise returns a promise by id. Members only see their own; a promise
// owned by somebody else is reported as not found, never as forbidden.
func (a *Actions) GetPromise(ctx context.Context, id string) (Promise, error) {
	owner, err := a.identity.authorize(opGetPromise)
	if err != nil {
		return Promise{}, err
	}
	return a.store.GetPromise(ctx, id, owner)
}

// UpdatePromise applies a partial update scoped like GetPromise. A non-owned
// or absent id updates zero rows and returns nil: existence is not confirmed
// to non-owners.
func (a *Actions) UpdatePromise(ctx context.Context, id string, upd PromiseUpdate) error {
	owner, err := a.identity.authorize(opUpdatePromise)
	if err != nil {
		return err
	}
	if upd.Amount != nil && *upd.Amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}
	_, err = a.store.UpdatePromise(ctx, id, owner, upd)
	return err
}

// DeletePromise removes zero or one row under the same scoping and silent
// no-op policy as UpdatePromise.
func (a *Actions) DeletePromise(ctx context.Context, id string) error {
	owner, err := a.identity.authorize(opDeletePromise)
	if err != nil {
		return err
	}
	_, err = a.store.DeletePromise(ctx, id, owner)
	return err
}

// ListPromisesByCause returns every promise against a cause. Admin only;
// unlike the owner-scoped paths this fails loudly for non-admins.
func (a *Actions) ListPromisesByCause(ctx context.Context, causeID string) ([]Promise, error) {
	if _, err := a.identity.authorize(opListPromisesByCause); err != nil {
		return nil, err
	}
	return a.store.ListPromisesByCause(ctx, causeID)
}

// GetPromiseForCause returns the caller's promise on a cause as a zero-or-one
// result set. Anonymous callers get an empty set rather than an error.
func (a *Actions) GetPromiseForCause(ctx context.Context, causeID string) ([]Promise, error) {
	if a.identity.Role() == RoleAnonymous {
		return nil, nil
	}
	if _, err := a.identity.authorize(opGetPromiseForCause); err != nil {
		return nil, err
	}
	return a.store.PromisesForCauseUser(ctx, causeID, a.identity.UserID)
}

// ListCausesPromised returns distinct causes carrying at least one promise.
func (a *Actions) ListCausesPromised(ctx context.Context) ([]Cause, error) {
	if _, err := a.identity.authorize(opListCausesPromised); err != nil {
		return nil, err
	}
	return a.store.ListCausesPromised(ctx)
}

func (a *Actions) buildContact(input ContactInput) (Contact, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.FirstName == "" && input.LastName == "" {
		return Contact{}, fmt.Errorf("%w: contact name is required", ErrInvalidInput)
	}
	if input.Email != "" && !strings.Contains(input.Email, "@") {
		return Contact{}, fmt.Errorf("%w: valid contact email is required", ErrInvalidInput)
	}
	return Contact{
		ID:        ids.New(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Address:   strings.TrimSpace(input.Address),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     input.Email,
		CreatedAt: a.now().UTC(),
	}, nil
}
