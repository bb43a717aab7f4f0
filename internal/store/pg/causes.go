package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"causebook.org/internal/pledge"
)

const causeColumns = `id, title, description, illustration, contact_id, expiration_date, target_amount, creator_id, enabled, created_at, modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCause(row rowScanner) (pledge.Cause, error) {
	var c pledge.Cause
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Illustration, &c.ContactID,
		&c.ExpirationDate, &c.TargetAmount, &c.CreatorID, &c.Enabled, &c.CreatedAt, &c.ModifiedAt)
	return c, err
}

func (s *Store) CreateCause(ctx context.Context, cause pledge.Cause, contact pledge.Contact) (pledge.Cause, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pledge.Cause{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into contacts (id, first_name, last_name, address, phone, email, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, contact.ID, contact.FirstName, contact.LastName, contact.Address, contact.Phone, contact.Email, contact.CreatedAt); err != nil {
		return pledge.Cause{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		insert into causes (`+causeColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, cause.ID, cause.Title, cause.Description, cause.Illustration, cause.ContactID,
		cause.ExpirationDate, cause.TargetAmount, cause.CreatorID, cause.Enabled, cause.CreatedAt, cause.ModifiedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return pledge.Cause{}, pledge.ErrNotFound
		}
		return pledge.Cause{}, err
	}

	if err := tx.Commit(); err != nil {
		return pledge.Cause{}, err
	}
	return cause, nil
}

func (s *Store) GetCause(ctx context.Context, id string) (pledge.Cause, error) {
	row := s.db.QueryRowContext(ctx, `select `+causeColumns+` from causes where id = $1`, id)
	cause, err := scanCause(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pledge.Cause{}, pledge.ErrNotFound
	}
	if err != nil {
		return pledge.Cause{}, err
	}
	return cause, nil
}

func (s *Store) ListCauses(ctx context.Context) ([]pledge.Cause, error) {
	return s.queryCauses(ctx, `
		select `+causeColumns+` from causes
		order by created_at desc, id desc
	`)
}

func (s *Store) ListAvailableCauses(ctx context.Context, userID string) ([]pledge.Cause, error) {
	return s.queryCauses(ctx, `
		select `+causeColumns+` from causes c
		where not exists (
			select 1 from promises p where p.cause_id = c.id and p.user_id = $1
		)
		order by created_at desc, id desc
	`, userID)
}

func (s *Store) ListCausesPromised(ctx context.Context) ([]pledge.Cause, error) {
	return s.queryCauses(ctx, `
		select `+causeColumns+` from causes c
		where exists (
			select 1 from promises p where p.cause_id = c.id
		)
		order by created_at desc, id desc
	`)
}

func (s *Store) queryCauses(ctx context.Context, query string, args ...any) ([]pledge.Cause, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pledge.Cause
	for rows.Next() {
		cause, err := scanCause(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, cause)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateCause(ctx context.Context, id string, upd pledge.CauseUpdate) (pledge.Cause, error) {
	sets := []string{"modified_at = now()"}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Illustration != nil {
		add("illustration", *upd.Illustration)
	}
	if upd.ExpirationDate != nil {
		add("expiration_date", *upd.ExpirationDate)
	}
	if upd.TargetAmount != nil {
		add("target_amount", *upd.TargetAmount)
	}
	if upd.Enabled != nil {
		add("enabled", *upd.Enabled)
	}

	row := s.db.QueryRowContext(ctx, `
		update causes set `+strings.Join(sets, ", ")+`
		where id = $1
		returning `+causeColumns+`
	`, args...)
	cause, err := scanCause(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pledge.Cause{}, pledge.ErrNotFound
	}
	if err != nil {
		return pledge.Cause{}, err
	}
	return cause, nil
}

func (s *Store) DeleteCause(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var contactID string
	err = tx.QueryRowContext(ctx, `select contact_id from causes where id = $1`, id).Scan(&contactID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	// Promises fall with the cause via their foreign key.
	if _, err := tx.ExecContext(ctx, `delete from causes where id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from contacts where id = $1`, contactID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetContact(ctx context.Context, id string) (pledge.Contact, error) {
	var c pledge.Contact
	err := s.db.QueryRowContext(ctx, `
		select id, first_name, last_name, address, phone, email, created_at
		from contacts where id = $1
	`, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Address, &c.Phone, &c.Email, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pledge.Contact{}, pledge.ErrNotFound
	}
	if err != nil {
		return pledge.Contact{}, err
	}
	return c, nil
}
