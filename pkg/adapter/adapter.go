package adapter

import "github.com/codemk8/dynauth/pkg/schema"

// Adapter is the persistence contract the auth runtime drives. Read
// operations report absence as a nil entity with a nil error; only
// UpdateUser fails on a missing record. Writes are unconditional,
// last write wins.
type Adapter interface {
	CreateUser(user schema.User) (*schema.User, error)
	GetUser(id string) (*schema.User, error)
	GetUserByEmail(email string) (*schema.User, error)
	GetUserByAccount(provider string, providerAccountID string) (*schema.User, error)
	UpdateUser(user schema.User) (*schema.User, error)
	LinkAccount(account schema.Account) error
	CreateSession(session schema.Session) (*schema.Session, error)
	GetSessionAndUser(sessionToken string) (*schema.SessionUser, error)
	UpdateSession(session schema.Session) (*schema.Session, error)
	DeleteSession(sessionToken string) error
}
