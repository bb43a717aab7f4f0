package pledge

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements EntityStore with in-process concurrency safety. It backs
// unit tests and DSN-less runs; production deployments use the Postgres store.
type InMemory struct {
	mu       sync.RWMutex
	contacts map[string]Contact
	causes   map[string]Cause
	promises map[string]Promise
	// pairIndex enforces the (cause, user) uniqueness the SQL store gets from
	// its unique index.
	pairIndex map[[2]string]string
}

var _ EntityStore = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		contacts:  make(map[string]Contact),
		causes:    make(map[string]Cause),
		promises:  make(map[string]Promise),
		pairIndex: make(map[[2]string]string),
	}
}

func (s *InMemory) CreateCause(ctx context.Context, cause Cause, contact Contact) (Cause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[contact.ID] = contact
	s.causes[cause.ID] = cause
	return cause, nil
}

func (s *InMemory) GetCause(ctx context.Context, id string) (Cause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cause, ok := s.causes[id]
	if !ok {
		return Cause{}, ErrNotFound
	}
	return cause, nil
}

func (s *InMemory) ListCauses(ctx context.Context) ([]Cause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCauses(func(Cause) bool { return true }), nil
}

func (s *InMemory) ListAvailableCauses(ctx context.Context, userID string) ([]Cause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	promised := make(map[string]struct{})
	for _, p := range s.promises {
		if p.UserID == userID {
			promised[p.CauseID] = struct{}{}
		}
	}
	return s.sortedCauses(func(c Cause) bool {
		_, ok := promised[c.ID]
		return !ok
	}), nil
}

func (s *InMemory) ListCausesPromised(ctx context.Context) ([]Cause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	promised := make(map[string]struct{})
	for _, p := range s.promises {
		promised[p.CauseID] = struct{}{}
	}
	return s.sortedCauses(func(c Cause) bool {
		_, ok := promised[c.ID]
		return ok
	}), nil
}

func (s *InMemory) UpdateCause(ctx context.Context, id string, upd CauseUpdate) (Cause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cause, ok := s.causes[id]
	if !ok {
		return Cause{}, ErrNotFound
	}
	if upd.Title != nil {
		cause.Title = *upd.Title
	}
	if upd.Description != nil {
		cause.Description = *upd.Description
	}
	if upd.Illustration != nil {
		cause.Illustration = *upd.Illustration
	}
	if upd.ExpirationDate != nil {
		cause.ExpirationDate = *upd.ExpirationDate
	}
	if upd.TargetAmount != nil {
		cause.TargetAmount = *upd.TargetAmount
	}
	if upd.Enabled != nil {
		cause.Enabled = *upd.Enabled
	}
	cause.ModifiedAt = time.Now().UTC()
	s.causes[id] = cause
	return cause, nil
}

func (s *InMemory) DeleteCause(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cause, ok := s.causes[id]
	if !ok {
		return nil
	}
	for pid, p := range s.promises {
		if p.CauseID == id {
			delete(s.promises, pid)
			delete(s.pairIndex, [2]string{p.CauseID, p.UserID})
		}
	}
	delete(s.contacts, cause.ContactID)
	delete(s.causes, id)
	return nil
}

func (s *InMemory) GetContact(ctx context.Context, id string) (Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return contact, nil
}

func (s *InMemory) CreatePromise(ctx context.Context, p Promise) (Promise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.causes[p.CauseID]; !ok {
		return Promise{}, ErrNotFound
	}
	key := [2]string{p.CauseID, p.UserID}
	if _, ok := s.pairIndex[key]; ok {
		return Promise{}, ErrConflict
	}
	s.promises[p.ID] = p
	s.pairIndex[key] = p.ID
	return p, nil
}

func (s *InMemory) GetPromise(ctx context.Context, id, ownerID string) (Promise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.promises[id]
	if !ok || (ownerID != "" && p.UserID != ownerID) {
		return Promise{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemory) ListPromises(ctx context.Context, ownerID string) ([]Promise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPromises(func(p Promise) bool {
		return ownerID == "" || p.UserID == ownerID
	}), nil
}

func (s *InMemory) ListPromisesByCause(ctx context.Context, causeID string) ([]Promise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPromises(func(p Promise) bool { return p.CauseID == causeID }), nil
}

func (s *InMemory) PromisesForCauseUser(ctx context.Context, causeID, userID string) ([]Promise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPromises(func(p Promise) bool {
		return p.CauseID == causeID && p.UserID == userID
	}), nil
}

func (s *InMemory) UpdatePromise(ctx context.Context, id, ownerID string, upd PromiseUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promises[id]
	if !ok || (ownerID != "" && p.UserID != ownerID) {
		return 0, nil
	}
	if upd.Amount != nil {
		p.Amount = *upd.Amount
	}
	if upd.TargetDate != nil {
		p.TargetDate = *upd.TargetDate
	}
	p.ModifiedAt = time.Now().UTC()
	s.promises[id] = p
	return 1, nil
}

func (s *InMemory) DeletePromise(ctx context.Context, id, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promises[id]
	if !ok || (ownerID != "" && p.UserID != ownerID) {
		return 0, nil
	}
	delete(s.promises, id)
	delete(s.pairIndex, [2]string{p.CauseID, p.UserID})
	return 1, nil
}

func (s *InMemory) TopCausesByAmount(ctx context.Context, limit int) ([]CauseTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := s.causeTotals()
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalAmount != totals[j].TotalAmount {
			return totals[i].TotalAmount > totals[j].TotalAmount
		}
		return totals[i].Cause.ID < totals[j].Cause.ID
	})
	return clipTotals(totals, limit), nil
}

func (s *InMemory) TopCausesByPromises(ctx context.Context, limit int) ([]CauseTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := s.causeTotals()
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].PromiseCount != totals[j].PromiseCount {
			return totals[i].PromiseCount > totals[j].PromiseCount
		}
		return totals[i].Cause.ID < totals[j].Cause.ID
	})
	return clipTotals(totals, limit), nil
}

func (s *InMemory) causeTotals() []CauseTotal {
	byCause := make(map[string]*CauseTotal, len(s.causes))
	for id, cause := range s.causes {
		byCause[id] = &CauseTotal{Cause: cause}
	}
	for _, p := range s.promises {
		if t, ok := byCause[p.CauseID]; ok {
			t.TotalAmount += p.Amount
			t.PromiseCount++
		}
	}
	totals := make([]CauseTotal, 0, len(byCause))
	for _, t := range byCause {
		totals = append(totals, *t)
	}
	return totals
}

func clipTotals(totals []CauseTotal, limit int) []CauseTotal {
	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}

// newest first, matching the SQL ordering.
func (s *InMemory) sortedCauses(keep func(Cause) bool) []Cause {
	var out []Cause
	for _, c := range s.causes {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *InMemory) sortedPromises(keep func(Promise) bool) []Promise {
	var out []Promise
	for _, p := range s.promises {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
