package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/zapdash/zapdash/internal/organization/domain"
	dbpkg "github.com/zapdash/zapdash/pkg/db"
	"go.uber.org/zap"
)

type service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(log *zap.Logger, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		log:   log.Named("organization.service"),
		repo:  repo,
		genID: genID,
	}
}

func (s *service) Resolve(ctx context.Context, companyName string) (*domain.Resolution, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return nil, domain.ErrInvalidCompanyName
	}

	org, err := s.repo.FindOrganizationByName(ctx, name)
	if err == nil {
		return &domain.Resolution{OrgID: org.ID, Role: domain.RoleMember}, nil
	}
	if !errors.Is(err, domain.ErrOrganizationNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	created := &domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		NameFold:  strings.ToLower(name),
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateOrganization(ctx, created); err != nil {
		// A concurrent registration won the insert; the unique index on the
		// folded name collapses this caller to member of the winner.
		if dbpkg.IsDuplicateKeyErr(err) {
			existing, lookupErr := s.repo.FindOrganizationByName(ctx, name)
			if lookupErr != nil {
				return nil, lookupErr
			}
			s.log.Info("organization insert lost race, joining existing",
				zap.String("name", name),
				zap.String("org_id", existing.ID.String()),
			)
			return &domain.Resolution{OrgID: existing.ID, Role: domain.RoleMember}, nil
		}
		return nil, err
	}

	return &domain.Resolution{OrgID: created.ID, Role: domain.RoleAdmin}, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	return s.repo.FindOrganizationByID(ctx, id)
}
