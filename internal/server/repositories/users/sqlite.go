package users

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

var sqliteQueries = queries{
	insert: `INSERT INTO users (id, username, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
	byUsername: `SELECT id, username, password_hash, created_at FROM users
		 WHERE username = ?`,
	byID: `SELECT id, username, password_hash, created_at FROM users
		 WHERE id = ?`,
	updateHash: `UPDATE users SET password_hash = ?
		 WHERE id = ?`,
}

// SQLiteRepository is the modernc.org/sqlite-backed Repository.
type SQLiteRepository struct {
	sqlRepository
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{sqlRepository{
		db:                db,
		q:                 sqliteQueries,
		isUniqueViolation: isSQLiteUniqueViolation,
	}}
}

func isSQLiteUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	default:
		return false
	}
}
