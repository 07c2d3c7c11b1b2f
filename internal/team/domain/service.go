// Package domain defines the team-management service boundary.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Member is a row on the team page: profile plus identity-store fields.
type Member struct {
	ID       string    `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Service manages organization membership. Every mutation is scoped to the
// acting user's organization and guarded so no organization is ever left
// without an admin.
type Service interface {
	ListMembers(ctx context.Context, actingUserID snowflake.ID) ([]Member, error)
	UpdateMemberRole(ctx context.Context, actingUserID, targetProfileID snowflake.ID, newRole string) error
	RemoveMember(ctx context.Context, actingUserID, targetProfileID snowflake.ID) error
}
