package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service runs the signup flow: identity account, organization resolution,
// profile, then a fresh session.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
}

type RegisterRequest struct {
	Email       string
	Password    string
	FullName    string
	CompanyName string
	UserAgent   string
	IPAddress   string
}

type RegisterResult struct {
	UserID    snowflake.ID
	OrgID     snowflake.ID
	Role      string
	RawToken  string
	ExpiresAt time.Time
}
