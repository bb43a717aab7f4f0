package pg

import (
	"context"
	"database/sql"
	"errors"

	"causebook.org/internal/auth"
	"causebook.org/internal/pledge"
)

func (s *Store) CreateUser(ctx context.Context, u auth.User) (auth.User, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, username, email, superuser, password_hash, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, u.ID, u.Username, u.Email, u.Superuser, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.User{}, pledge.ErrConflict
		}
		return auth.User{}, err
	}
	return u, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx, `
		select id, username, email, superuser, password_hash, created_at
		from users where username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.Superuser, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, pledge.ErrNotFound
	}
	if err != nil {
		return auth.User{}, err
	}
	return u, nil
}
