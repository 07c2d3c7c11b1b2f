package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Resolution is the outcome of resolving a company name: the organization to
// join and the role the caller gets in it.
type Resolution struct {
	OrgID snowflake.ID
	Role  string
}

// Service resolves company names to organizations.
type Service interface {
	// Resolve finds the organization with the given name (case-insensitive)
	// or creates it. The first creator of an organization becomes its admin;
	// everyone who resolves to an existing organization joins as member.
	Resolve(ctx context.Context, companyName string) (*Resolution, error)

	GetByID(ctx context.Context, id snowflake.ID) (*Organization, error)
}
