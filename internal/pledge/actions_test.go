package pledge

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	adminIdentity  = Identity{UserID: "admin-1", Authenticated: true, Superuser: true}
	memberIdentity = Identity{UserID: "member-1", Authenticated: true}
	otherIdentity  = Identity{UserID: "member-2", Authenticated: true}
)

func testContact() ContactInput {
	return ContactInput{
		FirstName: "First",
		LastName:  "Last",
		Address:   "Address",
		Phone:     "+00000000",
		Email:     "a@email.com",
	}
}

func createTestCause(t *testing.T, store EntityStore) Cause {
	t.Helper()
	admin := NewActions(store, adminIdentity)
	cause, err := admin.CreateCause(context.Background(), CauseInput{
		Title:          "Title",
		Description:    "Description",
		Contact:        testContact(),
		ExpirationDate: time.Now().UTC(),
		TargetAmount:   30000,
	})
	if err != nil {
		t.Fatalf("CreateCause: %v", err)
	}
	return cause
}

func TestCreateCauseRequiresAdmin(t *testing.T) {
	store := NewInMemory()
	input := CauseInput{Title: "Title", Description: "Description", Contact: testContact(), TargetAmount: 30000}

	for _, id := range []Identity{Anonymous, memberIdentity} {
		a := NewActions(store, id)
		if _, err := a.CreateCause(context.Background(), input); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("role %s: expected ErrPermissionDenied, got %v", id.Role(), err)
		}
	}

	admin := NewActions(store, adminIdentity)
	cause, err := admin.CreateCause(context.Background(), input)
	if err != nil {
		t.Fatalf("admin CreateCause: %v", err)
	}
	if cause.CreatorID != adminIdentity.UserID {
		t.Fatalf("creator not set from identity: %q", cause.CreatorID)
	}
	if !cause.Enabled {
		t.Fatalf("cause should default to enabled")
	}
}

func TestCauseReadsOpenToEveryone(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)

	for _, id := range []Identity{Anonymous, memberIdentity, adminIdentity} {
		a := NewActions(store, id)
		causes, err := a.ListCauses(context.Background())
		if err != nil {
			t.Fatalf("role %s: ListCauses: %v", id.Role(), err)
		}
		if len(causes) != 1 {
			t.Fatalf("role %s: expected 1 cause, got %d", id.Role(), len(causes))
		}
		got, err := a.GetCause(context.Background(), cause.ID)
		if err != nil {
			t.Fatalf("role %s: GetCause: %v", id.Role(), err)
		}
		if got.ID != cause.ID {
			t.Fatalf("role %s: unexpected cause %q", id.Role(), got.ID)
		}
	}
}

func TestCauseMutationsRequireAdmin(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)
	title := "Changed"

	for _, id := range []Identity{Anonymous, memberIdentity} {
		a := NewActions(store, id)
		if _, err := a.UpdateCause(context.Background(), cause.ID, CauseUpdate{Title: &title}); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("role %s: update: expected ErrPermissionDenied, got %v", id.Role(), err)
		}
		if err := a.DeleteCause(context.Background(), cause.ID); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("role %s: delete: expected ErrPermissionDenied, got %v", id.Role(), err)
		}
	}

	admin := NewActions(store, adminIdentity)
	updated, err := admin.UpdateCause(context.Background(), cause.ID, CauseUpdate{Title: &title})
	if err != nil {
		t.Fatalf("admin UpdateCause: %v", err)
	}
	if updated.Title != "Changed" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
	if err := admin.DeleteCause(context.Background(), cause.ID); err != nil {
		t.Fatalf("admin DeleteCause: %v", err)
	}
	causes, err := admin.ListCauses(context.Background())
	if err != nil {
		t.Fatalf("ListCauses: %v", err)
	}
	if len(causes) != 0 {
		t.Fatalf("expected 0 causes after delete, got %d", len(causes))
	}
}

func TestDeleteCauseCascades(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)

	member := NewActions(store, memberIdentity)
	if _, err := member.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 30}); err != nil {
		t.Fatalf("AddPromiseToCause: %v", err)
	}

	admin := NewActions(store, adminIdentity)
	if err := admin.DeleteCause(context.Background(), cause.ID); err != nil {
		t.Fatalf("DeleteCause: %v", err)
	}
	promises, err := admin.ListPromises(context.Background())
	if err != nil {
		t.Fatalf("ListPromises: %v", err)
	}
	if len(promises) != 0 {
		t.Fatalf("promises should be removed with their cause, got %d", len(promises))
	}
	if _, err := store.GetContact(context.Background(), cause.ContactID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("contact should be removed with its cause, got %v", err)
	}
}

func TestAddPromiseTwiceConflicts(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)
	member := NewActions(store, memberIdentity)

	input := PromiseInput{Amount: 30, TargetDate: time.Now().UTC()}
	if _, err := member.AddPromiseToCause(context.Background(), cause.ID, input); err != nil {
		t.Fatalf("first promise: %v", err)
	}
	if _, err := member.AddPromiseToCause(context.Background(), cause.ID, input); !errors.Is(err, ErrConflict) {
		t.Fatalf("second promise: expected ErrConflict, got %v", err)
	}

	admin := NewActions(store, adminIdentity)
	promises, err := admin.ListPromisesByCause(context.Background(), cause.ID)
	if err != nil {
		t.Fatalf("ListPromisesByCause: %v", err)
	}
	if len(promises) != 1 {
		t.Fatalf("promise count should remain 1, got %d", len(promises))
	}
}

func TestAddPromiseRequiresAuthentication(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)
	anon := NewActions(store, Anonymous)
	if _, err := anon.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 30}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestAddPromiseMissingCause(t *testing.T) {
	store := NewInMemory()
	member := NewActions(store, memberIdentity)
	if _, err := member.AddPromiseToCause(context.Background(), "no-such-cause", PromiseInput{Amount: 30}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPromiseVisibilityScopedToOwner(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)

	owner := NewActions(store, memberIdentity)
	p, err := owner.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 30})
	if err != nil {
		t.Fatalf("AddPromiseToCause: %v", err)
	}

	// Non-owner observes not found, never a permission error.
	other := NewActions(store, otherIdentity)
	if _, err := other.GetPromise(context.Background(), p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-owner: expected ErrNotFound, got %v", err)
	}

	got, err := owner.GetPromise(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("owner GetPromise: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("owner read wrong promise: %q", got.ID)
	}

	admin := NewActions(store, adminIdentity)
	if _, err := admin.GetPromise(context.Background(), p.ID); err != nil {
		t.Fatalf("admin GetPromise: %v", err)
	}
}

func TestPromiseUpdateDeleteSilentForNonOwner(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)

	owner := NewActions(store, memberIdentity)
	p, err := owner.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 30})
	if err != nil {
		t.Fatalf("AddPromiseToCause: %v", err)
	}

	amount := int64(500)
	other := NewActions(store, otherIdentity)
	if err := other.UpdatePromise(context.Background(), p.ID, PromiseUpdate{Amount: &amount}); err != nil {
		t.Fatalf("non-owner update should be a silent no-op, got %v", err)
	}
	if err := other.DeletePromise(context.Background(), p.ID); err != nil {
		t.Fatalf("non-owner delete should be a silent no-op, got %v", err)
	}

	got, err := owner.GetPromise(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("promise must survive non-owner mutations: %v", err)
	}
	if got.Amount != 30 {
		t.Fatalf("amount must be untouched, got %d", got.Amount)
	}

	if err := owner.UpdatePromise(context.Background(), p.ID, PromiseUpdate{Amount: &amount}); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	got, err = owner.GetPromise(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPromise: %v", err)
	}
	if got.Amount != 500 {
		t.Fatalf("owner update not applied, got %d", got.Amount)
	}

	if err := owner.DeletePromise(context.Background(), p.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := owner.GetPromise(context.Background(), p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("promise should be gone, got %v", err)
	}
}

func TestListPromisesScope(t *testing.T) {
	store := NewInMemory()
	first := createTestCause(t, store)
	second := createTestCause(t, store)

	owner := NewActions(store, memberIdentity)
	other := NewActions(store, otherIdentity)
	if _, err := owner.AddPromiseToCause(context.Background(), first.ID, PromiseInput{Amount: 10}); err != nil {
		t.Fatalf("owner promise: %v", err)
	}
	if _, err := other.AddPromiseToCause(context.Background(), first.ID, PromiseInput{Amount: 20}); err != nil {
		t.Fatalf("other promise: %v", err)
	}
	if _, err := other.AddPromiseToCause(context.Background(), second.ID, PromiseInput{Amount: 20}); err != nil {
		t.Fatalf("other promise: %v", err)
	}

	mine, err := owner.ListPromises(context.Background())
	if err != nil {
		t.Fatalf("member ListPromises: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != memberIdentity.UserID {
		t.Fatalf("member should only see own promises: %+v", mine)
	}

	admin := NewActions(store, adminIdentity)
	all, err := admin.ListPromises(context.Background())
	if err != nil {
		t.Fatalf("admin ListPromises: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin should see all promises, got %d", len(all))
	}
}

func TestListPromisesByCauseAdminOnly(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)

	member := NewActions(store, memberIdentity)
	p, err := member.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 30})
	if err != nil {
		t.Fatalf("AddPromiseToCause: %v", err)
	}

	if _, err := member.ListPromisesByCause(context.Background(), cause.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("member: expected ErrPermissionDenied, got %v", err)
	}

	admin := NewActions(store, adminIdentity)
	promises, err := admin.ListPromisesByCause(context.Background(), cause.ID)
	if err != nil {
		t.Fatalf("admin ListPromisesByCause: %v", err)
	}
	if len(promises) != 1 || promises[0].ID != p.ID {
		t.Fatalf("expected exactly the member's promise, got %+v", promises)
	}
}

func TestListAvailableCauses(t *testing.T) {
	store := NewInMemory()
	var causes []Cause
	for i := 0; i < 4; i++ {
		causes = append(causes, createTestCause(t, store))
	}

	member := NewActions(store, memberIdentity)
	if _, err := member.AddPromiseToCause(context.Background(), causes[0].ID, PromiseInput{Amount: 10}); err != nil {
		t.Fatalf("promise: %v", err)
	}
	if _, err := member.AddPromiseToCause(context.Background(), causes[2].ID, PromiseInput{Amount: 10}); err != nil {
		t.Fatalf("promise: %v", err)
	}

	available, err := member.ListAvailableCauses(context.Background())
	if err != nil {
		t.Fatalf("member ListAvailableCauses: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected n-k=2 available causes, got %d", len(available))
	}
	for _, c := range available {
		if c.ID == causes[0].ID || c.ID == causes[2].ID {
			t.Fatalf("promised cause %q should not be available", c.ID)
		}
	}

	// Anonymous callers fall back to the full list.
	anon := NewActions(store, Anonymous)
	all, err := anon.ListAvailableCauses(context.Background())
	if err != nil {
		t.Fatalf("anonymous ListAvailableCauses: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("anonymous should see all 4 causes, got %d", len(all))
	}
}

func TestGetPromiseForCause(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)

	member := NewActions(store, memberIdentity)
	if _, err := member.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 30}); err != nil {
		t.Fatalf("AddPromiseToCause: %v", err)
	}

	set, err := member.GetPromiseForCause(context.Background(), cause.ID)
	if err != nil {
		t.Fatalf("GetPromiseForCause: %v", err)
	}
	if len(set) != 1 || set[0].UserID != memberIdentity.UserID {
		t.Fatalf("expected the caller's single promise, got %+v", set)
	}

	other := NewActions(store, otherIdentity)
	set, err = other.GetPromiseForCause(context.Background(), cause.ID)
	if err != nil {
		t.Fatalf("GetPromiseForCause: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("other member should see an empty set, got %+v", set)
	}

	// Anonymous gets an empty set rather than an error.
	anon := NewActions(store, Anonymous)
	set, err = anon.GetPromiseForCause(context.Background(), cause.ID)
	if err != nil {
		t.Fatalf("anonymous GetPromiseForCause: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("anonymous set should be empty, got %+v", set)
	}
}

func TestListCausesPromised(t *testing.T) {
	store := NewInMemory()
	var causes []Cause
	for i := 0; i < 4; i++ {
		causes = append(causes, createTestCause(t, store))
	}

	member := NewActions(store, memberIdentity)
	if _, err := member.AddPromiseToCause(context.Background(), causes[1].ID, PromiseInput{Amount: 10}); err != nil {
		t.Fatalf("promise: %v", err)
	}
	if _, err := member.AddPromiseToCause(context.Background(), causes[3].ID, PromiseInput{Amount: 10}); err != nil {
		t.Fatalf("promise: %v", err)
	}

	promised, err := member.ListCausesPromised(context.Background())
	if err != nil {
		t.Fatalf("ListCausesPromised: %v", err)
	}
	if len(promised) != 2 {
		t.Fatalf("expected 2 promised causes, got %d", len(promised))
	}

	anon := NewActions(store, Anonymous)
	if _, err := anon.ListCausesPromised(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("anonymous: expected ErrPermissionDenied, got %v", err)
	}
}

func TestDateDefaultsToTomorrow(t *testing.T) {
	store := NewInMemory()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }

	admin := NewActions(store, adminIdentity, WithClock(clock))
	cause, err := admin.CreateCause(context.Background(), CauseInput{
		Title:        "Title",
		Description:  "Description",
		Contact:      testContact(),
		TargetAmount: 30000,
	})
	if err != nil {
		t.Fatalf("CreateCause: %v", err)
	}
	if !cause.ExpirationDate.Equal(fixed.Add(24 * time.Hour)) {
		t.Fatalf("expiration should default to tomorrow, got %v", cause.ExpirationDate)
	}

	member := NewActions(store, memberIdentity, WithClock(clock))
	p, err := member.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 30})
	if err != nil {
		t.Fatalf("AddPromiseToCause: %v", err)
	}
	if !p.TargetDate.Equal(fixed.Add(24 * time.Hour)) {
		t.Fatalf("target date should default to tomorrow, got %v", p.TargetDate)
	}
}

func TestPromiseScenarioEndToEnd(t *testing.T) {
	store := NewInMemory()
	admin := NewActions(store, adminIdentity)
	cause, err := admin.CreateCause(context.Background(), CauseInput{
		Title:          "Title",
		Description:    "Description",
		Contact:        testContact(),
		ExpirationDate: time.Now().UTC(),
		TargetAmount:   30000,
	})
	if err != nil {
		t.Fatalf("CreateCause: %v", err)
	}

	member := NewActions(store, memberIdentity)
	input := PromiseInput{Amount: 30, TargetDate: time.Now().UTC()}
	p, err := member.AddPromiseToCause(context.Background(), cause.ID, input)
	if err != nil {
		t.Fatalf("first promise: %v", err)
	}
	if _, err := member.AddPromiseToCause(context.Background(), cause.ID, input); !errors.Is(err, ErrConflict) {
		t.Fatalf("repeat promise: expected ErrConflict, got %v", err)
	}

	promises, err := admin.ListPromisesByCause(context.Background(), cause.ID)
	if err != nil {
		t.Fatalf("admin ListPromisesByCause: %v", err)
	}
	if len(promises) != 1 || promises[0].ID != p.ID {
		t.Fatalf("expected exactly [member's promise], got %+v", promises)
	}

	if _, err := member.ListPromisesByCause(context.Background(), cause.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("member ListPromisesByCause: expected ErrPermissionDenied, got %v", err)
	}
}

func TestInputValidation(t *testing.T) {
	store := NewInMemory()
	cause := createTestCause(t, store)

	admin := NewActions(store, adminIdentity)
	if _, err := admin.CreateCause(context.Background(), CauseInput{Contact: testContact()}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty title: expected ErrInvalidInput, got %v", err)
	}
	if _, err := admin.CreateCause(context.Background(), CauseInput{Title: "T", Contact: testContact(), TargetAmount: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative target: expected ErrInvalidInput, got %v", err)
	}
	if _, err := admin.CreateCause(context.Background(), CauseInput{Title: "T"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing contact name: expected ErrInvalidInput, got %v", err)
	}

	member := NewActions(store, memberIdentity)
	if _, err := member.AddPromiseToCause(context.Background(), cause.ID, PromiseInput{Amount: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero amount: expected ErrInvalidInput, got %v", err)
	}
}
