package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"causebook.org/internal/pledge"
)

const promiseColumns = `id, cause_id, user_id, amount, target_date, created_at, modified_at`

func scanPromise(row rowScanner) (pledge.Promise, error) {
	var p pledge.Promise
	err := row.Scan(&p.ID, &p.CauseID, &p.UserID, &p.Amount, &p.TargetDate, &p.CreatedAt, &p.ModifiedAt)
	return p, err
}

func (s *Store) CreatePromise(ctx context.Context, p pledge.Promise) (pledge.Promise, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into promises (`+promiseColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, p.ID, p.CauseID, p.UserID, p.Amount, p.TargetDate, p.CreatedAt, p.ModifiedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				// The (cause_id, user_id) unique index; the caller already
				// pledged against this cause.
				return pledge.Promise{}, pledge.ErrConflict
			case pgErrForeignKeyViolation:
				return pledge.Promise{}, pledge.ErrNotFound
			}
		}
		return pledge.Promise{}, err
	}
	return p, nil
}

// GetPromise narrows to the owner inside the statement when ownerID is set, so
// "absent" and "not owned" are indistinguishable to the caller.
func (s *Store) GetPromise(ctx context.Context, id, ownerID string) (pledge.Promise, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+promiseColumns+` from promises
		where id = $1 and ($2 = '' or user_id = $2)
	`, id, ownerID)
	p, err := scanPromise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pledge.Promise{}, pledge.ErrNotFound
	}
	if err != nil {
		return pledge.Promise{}, err
	}
	return p, nil
}

func (s *Store) ListPromises(ctx context.Context, ownerID string) ([]pledge.Promise, error) {
	return s.queryPromises(ctx, `
		select `+promiseColumns+` from promises
		where ($1 = '' or user_id = $1)
		order by created_at desc, id desc
	`, ownerID)
}

func (s *Store) ListPromisesByCause(ctx context.Context, causeID string) ([]pledge.Promise, error) {
	return s.queryPromises(ctx, `
		select `+promiseColumns+` from promises
		where cause_id = $1
		order by created_at desc, id desc
	`, causeID)
}

func (s *Store) PromisesForCauseUser(ctx context.Context, causeID, userID string) ([]pledge.Promise, error) {
	return s.queryPromises(ctx, `
		select `+promiseColumns+` from promises
		where cause_id = $1 and user_id = $2
	`, causeID, userID)
}

func (s *Store) queryPromises(ctx context.Context, query string, args ...any) ([]pledge.Promise, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pledge.Promise
	for rows.Next() {
		p, err := scanPromise(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdatePromise is a single scoped statement: the ownership predicate lives in
// the where clause, so there is no separate check racing the mutation. Zero
// rows affected is a valid outcome, not an error.
func (s *Store) UpdatePromise(ctx context.Context, id, ownerID string, upd pledge.PromiseUpdate) (int64, error) {
	sets := []string{"modified_at = now()"}
	args := []any{id, ownerID}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Amount != nil {
		add("amount", *upd.Amount)
	}
	if upd.TargetDate != nil {
		add("target_date", *upd.TargetDate)
	}

	res, err := s.db.ExecContext(ctx, `
		update promises set `+strings.Join(sets, ", ")+`
		where id = $1 and ($2 = '' or user_id = $2)
	`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) DeletePromise(ctx context.Context, id, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		delete from promises
		where id = $1 and ($2 = '' or user_id = $2)
	`, id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) TopCausesByAmount(ctx context.Context, limit int) ([]pledge.CauseTotal, error) {
	return s.queryCauseTotals(ctx, `
		select c.id, c.title, c.description, c.illustration, c.contact_id, c.expiration_date,
		       c.target_amount, c.creator_id, c.enabled, c.created_at, c.modified_at,
		       coalesce(sum(p.amount), 0) as total_amount,
		       count(p.id) as promise_count
		from causes c
		left join promises p on p.cause_id = c.id
		group by c.id
		order by total_amount desc, c.id asc
		limit $1
	`, limit)
}

func (s *Store) TopCausesByPromises(ctx context.Context, limit int) ([]pledge.CauseTotal, error) {
	return s.queryCauseTotals(ctx, `
		select c.id, c.title, c.description, c.illustration, c.contact_id, c.expiration_date,
		       c.target_amount, c.creator_id, c.enabled, c.created_at, c.modified_at,
		       coalesce(sum(p.amount), 0) as total_amount,
		       count(p.id) as promise_count
		from causes c
		left join promises p on p.cause_id = c.id
		group by c.id
		order by promise_count desc, c.id asc
		limit $1
	`, limit)
}

func (s *Store) queryCauseTotals(ctx context.Context, query string, limit int) ([]pledge.CauseTotal, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pledge.CauseTotal
	for rows.Next() {
		var t pledge.CauseTotal
		c := &t.Cause
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Illustration, &c.ContactID,
			&c.ExpirationDate, &c.TargetAmount, &c.CreatorID, &c.Enabled, &c.CreatedAt, &c.ModifiedAt,
			&t.TotalAmount, &t.PromiseCount); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
