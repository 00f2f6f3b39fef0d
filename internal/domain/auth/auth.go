package auth

import (
	"context"
	"errors"
)

var (
	ErrNotAuthenticated   = errors.New("auth: login required")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

type User struct {
	ID       int
	Username string
	Email    string
}

// Session is the shopper's authentication state. Consumed read-only by the
// cart and checkout layers to gate mutation.
type Session struct {
	User  *User
	Token string
}

func (s Session) Authenticated() bool { return s.Token != "" }

// SessionStore persists the session across process restarts. It is the only
// durable state in the system.
type SessionStore interface {
	// Load returns the zero Session when nothing is stored.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
