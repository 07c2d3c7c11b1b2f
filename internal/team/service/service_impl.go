package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"github.com/zapdash/zapdash/internal/team/domain"
	"go.uber.org/zap"
)

type service struct {
	log      *zap.Logger
	orgRepo  orgdomain.Repository
	identity identitydomain.Service
}

func NewService(log *zap.Logger, orgRepo orgdomain.Repository, identity identitydomain.Service) domain.Service {
	return &service{
		log:      log.Named("team.service"),
		orgRepo:  orgRepo,
		identity: identity,
	}
}

func (s *service) ListMembers(ctx context.Context, actingUserID snowflake.ID) ([]domain.Member, error) {
	acting, err := s.orgRepo.FindProfile(ctx, actingUserID)
	if err != nil {
		return nil, err
	}

	profiles, err := s.orgRepo.ListProfilesByOrg(ctx, acting.OrgID)
	if err != nil {
		return nil, err
	}

	members := make([]domain.Member, 0, len(profiles))
	for _, profile := range profiles {
		member := domain.Member{
			ID:       profile.ID.String(),
			FullName: profile.FullName,
			Role:     profile.Role,
			JoinedAt: profile.CreatedAt,
		}
		if user, err := s.identity.GetUser(ctx, profile.ID); err == nil {
			member.Email = user.Email
		}
		members = append(members, member)
	}

	return members, nil
}

func (s *service) UpdateMemberRole(ctx context.Context, actingUserID, targetProfileID snowflake.ID, newRole string) error {
	if !orgdomain.ValidRole(newRole) {
		return orgdomain.ErrInvalidRole
	}

	target, err := s.authorizeTarget(ctx, actingUserID, targetProfileID)
	if err != nil {
		return err
	}

	if target.Role == newRole {
		return nil
	}

	if newRole == orgdomain.RoleAdmin {
		return s.orgRepo.UpdateRole(ctx, target.ID, orgdomain.RoleAdmin)
	}

	ok, err := s.orgRepo.DemoteAdminGuarded(ctx, target.OrgID, target.ID)
	if err != nil {
		return err
	}
	if !ok {
		return orgdomain.ErrSoleAdmin
	}
	return nil
}

func (s *service) RemoveMember(ctx context.Context, actingUserID, targetProfileID snowflake.ID) error {
	if actingUserID == targetProfileID {
		return orgdomain.ErrSelfRemoval
	}

	target, err := s.authorizeTarget(ctx, actingUserID, targetProfileID)
	if err != nil {
		return err
	}

	// Profile row first, identity account second: a failure in between
	// leaves a dangling identity account, never a profile pointing at an
	// organization it no longer belongs to.
	if target.Role == orgdomain.RoleAdmin {
		ok, err := s.orgRepo.DeleteAdminProfileGuarded(ctx, target.OrgID, target.ID)
		if err != nil {
			return err
		}
		if !ok {
			return orgdomain.ErrSoleAdmin
		}
	} else {
		if err := s.orgRepo.DeleteProfile(ctx, target.ID); err != nil {
			return err
		}
	}

	if err := s.identity.DeleteAccount(ctx, target.ID); err != nil {
		s.log.Error("identity account left dangling after profile removal",
			zap.String("user_id", target.ID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// authorizeTarget loads both profiles and enforces admin role and tenant
// scoping before any mutation.
func (s *service) authorizeTarget(ctx context.Context, actingUserID, targetProfileID snowflake.ID) (*orgdomain.Profile, error) {
	acting, err := s.orgRepo.FindProfile(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if acting.Role != orgdomain.RoleAdmin {
		return nil, orgdomain.ErrNotAdmin
	}

	target, err := s.orgRepo.FindProfile(ctx, targetProfileID)
	if err != nil {
		return nil, err
	}
	if target.OrgID != acting.OrgID {
		return nil, orgdomain.ErrCrossTenant
	}

	return target, nil
}
