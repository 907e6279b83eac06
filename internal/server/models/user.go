// Package models holds the records persisted by the credential store.
package models

import "time"

// User is an account record. PasswordHash is the self-describing output of
// the password hasher and never leaves the server.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
