package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type queries struct {
	insert     string
	byUsername string
	byID       string
	updateHash string
}

// sqlRepository carries the behaviour shared by both dialects; they differ
// only in placeholder syntax and in how a unique violation is reported.
type sqlRepository struct {
	db                dbx.DBTX
	q                 queries
	isUniqueViolation func(error) bool
}

func (r *sqlRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.db.ExecContext(ctx, r.q.insert,
		user.ID, user.UserName, user.PasswordHash, user.CreatedAt)

	if err != nil {
		if r.isUniqueViolation(err) {
			return nil, oops.In("users").
				Code("USER_ALREADY_EXISTS").
				With("username", user.UserName).
				Wrap(common.ErrConflict)
		}
		return nil, oops.In("users").
			Code("USER_INSERT_FAILED").
			With("username", user.UserName).
			Wrapf(err, "db error")
	}

	return user, nil
}

func (r *sqlRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, r.q.byUsername, userName).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.In("users").
				Code("USER_NOT_FOUND").
				With("username", userName).
				Wrap(common.ErrorNotFound)
		}
		return nil, oops.In("users").
			Code("USER_QUERY_FAILED").
			With("username", userName).
			Wrapf(err, "db error")
	}

	return user, nil
}

func (r *sqlRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, r.q.byID, id).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.In("users").
				Code("USER_NOT_FOUND").
				With("user_id", id).
				Wrap(common.ErrorNotFound)
		}
		return nil, oops.In("users").
			Code("USER_QUERY_FAILED").
			With("user_id", id).
			Wrapf(err, "db error")
	}

	return user, nil
}

func (r *sqlRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, r.q.updateHash, passwordHash, id)
	if err != nil {
		return oops.In("users").
			Code("USER_UPDATE_FAILED").
			With("user_id", id).
			Wrapf(err, "db error")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return oops.In("users").
			Code("USER_UPDATE_FAILED").
			With("user_id", id).
			Wrapf(err, "db error")
	}
	if n == 0 {
		return oops.In("users").
			Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(common.ErrorNotFound)
	}

	return nil
}
