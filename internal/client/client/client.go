package client

import (
	"context"
)

// Account is what register and login report about the user.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Session is a successful login.
type Session struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Profile is the authenticated user's view of themselves.
type Profile struct {
	Username string `json:"username"`
}

type Client interface {
	Register(ctx context.Context, username, password string) (*Account, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Profile(ctx context.Context, token string) (*Profile, error)
}
