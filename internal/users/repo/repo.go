package usersrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	userdomain "github.com/MedAli03/atpsm-messaging/internal/users/domain"
)

var ErrUserNotFound = errors.New("user not found")

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) GetUser(ctx context.Context, id int64) (userdomain.User, error) {
	const op = "users.repo.GetUser"

	var u userdomain.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`
		SELECT id, name, role FROM users WHERE id = ?
	`), id)

	if errors.Is(err, sql.ErrNoRows) {
		return userdomain.User{}, ErrUserNotFound
	}
	if err != nil {
		return userdomain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// GetUsers resolves every id or fails with ErrUserNotFound; callers rely on
// this to reject thread participants that do not exist.
func (r *Repo) GetUsers(ctx context.Context, ids []int64) ([]userdomain.User, error) {
	const op = "users.repo.GetUsers"

	if len(ids) == 0 {
		return []userdomain.User{}, nil
	}

	q, args, err := sqlx.In(`SELECT id, name, role FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: sqlx.In: %w", op, err)
	}
	q = r.db.Rebind(q)

	var found []userdomain.User
	if err := r.db.SelectContext(ctx, &found, q, args...); err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	byID := make(map[int64]userdomain.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	result := make([]userdomain.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, ErrUserNotFound
		}
		result = append(result, u)
	}

	return result, nil
}
