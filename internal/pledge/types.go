package pledge

import "time"

// Amounts are NGN minor units (kobo). No floats.

// Contact is the person or organisation fronting a cause. A contact belongs to
// exactly one cause and is removed together with it.
type Contact struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Cause is a fundraising campaign.
type Cause struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Illustration   string    `json:"illustration,omitempty"`
	ContactID      string    `json:"contact_id"`
	ExpirationDate time.Time `json:"expiration_date"`
	TargetAmount   int64     `json:"target_amount"`
	CreatorID      string    `json:"creator_id"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
	ModifiedAt     time.Time `json:"modified_at"`
}

// Promise is a user's pledge toward a cause. At most one promise per
// (cause, user) pair; the store enforces this with a unique index.
type Promise struct {
	ID         string    `json:"id"`
	CauseID    string    `json:"cause_id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	TargetDate time.Time `json:"target_date"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ContactInput carries the contact fields accepted at cause creation.
type ContactInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// CauseInput carries the fields accepted when creating a cause. Identifier and
// creator fields supplied by clients are discarded; the service fills them in.
type CauseInput struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Illustration   string       `json:"illustration"`
	Contact        ContactInput `json:"contact"`
	ExpirationDate time.Time    `json:"expiration_date"`
	TargetAmount   int64        `json:"target_amount"`
	Enabled        *bool        `json:"enabled"`
}

// CauseUpdate is a partial update; nil fields are left untouched.
type CauseUpdate struct {
	Title          *string
	Description    *string
	Illustration   *string
	ExpirationDate *time.Time
	TargetAmount   *int64
	Enabled        *bool
}

// PromiseInput carries the fields accepted when making a promise. The pledging
// user and cause come from the call context, never from the payload.
type PromiseInput struct {
	Amount     int64     `json:"amount"`
	TargetDate time.Time `json:"target_date"`
}

// PromiseUpdate is a partial update; nil fields are left untouched.
type PromiseUpdate struct {
	Amount     *int64
	TargetDate *time.Time
}

// CauseTotal pairs a cause with an aggregate used by the reports.
type CauseTotal struct {
	Cause        Cause `json:"cause"`
	TotalAmount  int64 `json:"total_amount"`
	PromiseCount int64 `json:"promise_count"`
}

// Tomorrow is the provisional default for expiration and target dates when the
// caller leaves them unset, mirroring the product rule that every date field
// starts one day out.
func Tomorrow(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Add(24 * time.Hour)
}
