package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service is the identity-store boundary: account lifecycle plus sessions.
type Service interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*User, error)
	DeleteAccount(ctx context.Context, userID snowflake.ID) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	GetUser(ctx context.Context, userID snowflake.ID) (*User, error)
	RevokeUserSessions(ctx context.Context, userID snowflake.ID) error
}

type CreateAccountRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
