package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/zapdash/zapdash/internal/account/domain"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"go.uber.org/zap"
)

type service struct {
	log      *zap.Logger
	orgRepo  orgdomain.Repository
	identity identitydomain.Service
}

func NewService(log *zap.Logger, orgRepo orgdomain.Repository, identity identitydomain.Service) domain.Service {
	return &service{
		log:      log.Named("account.service"),
		orgRepo:  orgRepo,
		identity: identity,
	}
}

func (s *service) DeleteOwnAccount(ctx context.Context, userID snowflake.ID) error {
	profile, err := s.orgRepo.FindProfile(ctx, userID)
	switch {
	case errors.Is(err, orgdomain.ErrProfileNotFound):
		// Account without a profile, nothing to guard.
	case err != nil:
		return err
	case profile.Role == orgdomain.RoleAdmin:
		ok, err := s.orgRepo.DeleteAdminProfileGuarded(ctx, profile.OrgID, profile.ID)
		if err != nil {
			return err
		}
		if !ok {
			return orgdomain.ErrSoleAdmin
		}
	default:
		if err := s.orgRepo.DeleteProfile(ctx, profile.ID); err != nil {
			return err
		}
	}

	if err := s.identity.DeleteAccount(ctx, userID); err != nil {
		s.log.Error("identity account left dangling after self deletion",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
