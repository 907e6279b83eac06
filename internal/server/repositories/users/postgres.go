package users

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

var postgresQueries = queries{
	insert: `INSERT INTO users (id, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
	byUsername: `SELECT id, username, password_hash, created_at FROM users
		 WHERE username = $1`,
	byID: `SELECT id, username, password_hash, created_at FROM users
		 WHERE id = $1`,
	updateHash: `UPDATE users SET password_hash = $1
		 WHERE id = $2`,
}

// PostgresRepository is the pgx-backed Repository.
type PostgresRepository struct {
	sqlRepository
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{sqlRepository{
		db:                db,
		q:                 postgresQueries,
		isUniqueViolation: isPgUniqueViolation,
	}}
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
