package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, inst *Instance) error

	// FindByOrgAndID is tenant-scoped on purpose: an instance outside the
	// caller's organization is indistinguishable from one that does not
	// exist.
	FindByOrgAndID(ctx context.Context, orgID, id snowflake.ID) (*Instance, error)

	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]Instance, error)
	UpdateWebhookURL(ctx context.Context, id snowflake.ID, url string) error
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteByOrg(ctx context.Context, orgID snowflake.ID) error
}
