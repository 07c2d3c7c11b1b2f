package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	FindOrganizationByName(ctx context.Context, name string) (*Organization, error)
	FindOrganizationByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	DeleteOrganization(ctx context.Context, id snowflake.ID) error

	CreateProfile(ctx context.Context, profile *Profile) error
	FindProfile(ctx context.Context, id snowflake.ID) (*Profile, error)
	ListProfilesByOrg(ctx context.Context, orgID snowflake.ID) ([]Profile, error)
	CountAdmins(ctx context.Context, orgID snowflake.ID) (int64, error)
	UpdateRole(ctx context.Context, profileID snowflake.ID, role string) error
	DeleteProfile(ctx context.Context, profileID snowflake.ID) error

	// DemoteAdminGuarded demotes the profile to member only while the
	// organization keeps at least one other admin. The admin-count check is
	// evaluated atomically at the store; false means the guard refused.
	DemoteAdminGuarded(ctx context.Context, orgID, profileID snowflake.ID) (bool, error)

	// DeleteAdminProfileGuarded deletes an admin profile under the same
	// atomic admin-count guard.
	DeleteAdminProfileGuarded(ctx context.Context, orgID, profileID snowflake.ID) (bool, error)
}
