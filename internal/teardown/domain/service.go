package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Step names identify where a teardown stopped. They are stable strings:
// operators grep logs for them.
const (
	StepGuard              = "guard"
	StepExternalCleanup    = "external_cleanup"
	StepDeleteInstances    = "delete_instances"
	StepDeleteMembers      = "delete_members"
	StepDeleteOwnProfile   = "delete_own_profile"
	StepDeleteOrganization = "delete_organization"
	StepDeleteOwnAccount   = "delete_own_account"
	StepRevokeSessions     = "revoke_sessions"
)

// StepError reports which teardown step failed and on which entity, so an
// operator can finish the remainder by hand. Teardown has no rollback.
type StepError struct {
	Step     string
	EntityID string
	Err      error
}

func (e *StepError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("teardown step %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("teardown step %s (entity %s): %v", e.Step, e.EntityID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Orchestrator removes an entire organization: external sessions, instances,
// members, the organization row, and finally the acting admin's own account.
type Orchestrator interface {
	Teardown(ctx context.Context, actingUserID snowflake.ID) error
}
