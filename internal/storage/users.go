package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/chatinsight/insight-bot/internal/core/domain"
	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

// User is an alias for the domain type.
type User = domain.User

const upsertUserQuery = `
INSERT INTO users (tg_user_id, username, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (tg_user_id) DO UPDATE
SET username = EXCLUDED.username,
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    updated_at = now()
RETURNING id, tg_user_id, username, first_name, last_name, created_at, updated_at`

// UpsertUser inserts a user keyed by the Telegram user id, refreshing
// the mutable profile fields when the row already exists.
func (db *DB) UpsertUser(ctx context.Context, identity domain.UserIdentity) (*User, error) {
	row := db.Pool.QueryRow(ctx, upsertUserQuery,
		identity.TGUserID,
		toText(identity.Username),
		toText(identity.FirstName),
		toText(identity.LastName),
	)

	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return user, nil
}

const userByTGIDQuery = `
SELECT id, tg_user_id, username, first_name, last_name, created_at, updated_at
FROM users WHERE tg_user_id = $1`

// UserByTGID resolves a user by Telegram user id. A missing row is
// reported as ErrUserNotFound, not a generic error.
func (db *DB) UserByTGID(ctx context.Context, tgUserID int64) (*User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx, userByTGIDQuery, tgUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrUserNotFound
		}

		return nil, fmt.Errorf("user by tg id: %w", err)
	}

	return user, nil
}

const userByUsernameQuery = `
SELECT id, tg_user_id, username, first_name, last_name, created_at, updated_at
FROM users WHERE lower(username) = lower($1)`

// UserByUsername resolves a user by handle, case-insensitively.
func (db *DB) UserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx, userByUsernameQuery, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrUserNotFound
		}

		return nil, fmt.Errorf("user by username: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user                          User
		username, firstName, lastName pgtype.Text
		createdAt, updatedAt          pgtype.Timestamptz
	)

	if err := row.Scan(&user.ID, &user.TGUserID, &username, &firstName, &lastName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	user.Username = fromText(username)
	user.FirstName = fromText(firstName)
	user.LastName = fromText(lastName)
	user.CreatedAt = fromTimestamptz(createdAt)
	user.UpdatedAt = fromTimestamptz(updatedAt)

	return &user, nil
}
