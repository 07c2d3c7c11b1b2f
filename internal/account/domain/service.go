package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service removes the acting user's own membership and identity account.
// Organization-wide removal lives in the teardown package.
type Service interface {
	DeleteOwnAccount(ctx context.Context, userID snowflake.ID) error
}
