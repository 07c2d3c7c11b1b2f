package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service manages instances for the acting user's organization. All lookups
// resolve the organization from the user's profile, never from the request.
type Service interface {
	Create(ctx context.Context, actingUserID snowflake.ID, name string) (*Instance, error)
	List(ctx context.Context, actingUserID snowflake.ID) ([]Instance, error)
	SetWebhook(ctx context.Context, actingUserID, instanceID snowflake.ID, url string) (*Instance, error)
	RemoveWebhook(ctx context.Context, actingUserID, instanceID snowflake.ID) (*Instance, error)
	Delete(ctx context.Context, actingUserID, instanceID snowflake.ID) error

	// Connect polls the external system until it produces a pairing QR
	// code, or fails with ErrQRTimeout.
	Connect(ctx context.Context, actingUserID, instanceID snowflake.ID) (string, error)
}
