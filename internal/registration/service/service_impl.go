package service

import (
	"context"
	"strings"
	"time"

	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	"github.com/zapdash/zapdash/internal/observability/metrics"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"github.com/zapdash/zapdash/internal/registration/domain"
	"go.uber.org/zap"
)

type service struct {
	log      *zap.Logger
	identity identitydomain.Service
	orgs     orgdomain.Service
	orgRepo  orgdomain.Repository
	metrics  *metrics.Metrics
}

func NewService(
	log *zap.Logger,
	identity identitydomain.Service,
	orgs orgdomain.Service,
	orgRepo orgdomain.Repository,
	m *metrics.Metrics,
) domain.Service {
	return &service{
		log:      log.Named("registration.service"),
		identity: identity,
		orgs:     orgs,
		orgRepo:  orgRepo,
		metrics:  m,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResult, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, domain.ErrInvalidFullName
	}
	companyName := strings.TrimSpace(req.CompanyName)
	if companyName == "" {
		return nil, orgdomain.ErrInvalidCompanyName
	}

	user, err := s.identity.CreateAccount(ctx, identitydomain.CreateAccountRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: fullName,
	})
	if err != nil {
		return nil, err
	}

	resolution, err := s.orgs.Resolve(ctx, companyName)
	if err != nil {
		s.rollbackAccount(ctx, user)
		return nil, err
	}

	now := time.Now().UTC()
	profile := &orgdomain.Profile{
		ID:        user.ID,
		OrgID:     resolution.OrgID,
		Role:      resolution.Role,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orgRepo.CreateProfile(ctx, profile); err != nil {
		s.rollbackAccount(ctx, user)
		return nil, err
	}

	s.metrics.RecordRegistration(ctx, resolution.Role)
	s.log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("org_id", resolution.OrgID.String()),
		zap.String("role", resolution.Role),
	)

	login, err := s.identity.Login(ctx, identitydomain.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	})
	if err != nil {
		// Account and profile exist; the user can still log in manually.
		s.log.Warn("post-registration login failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.RegisterResult{
		UserID:    user.ID,
		OrgID:     resolution.OrgID,
		Role:      resolution.Role,
		RawToken:  login.RawToken,
		ExpiresAt: login.ExpiresAt,
	}, nil
}

// rollbackAccount removes the identity account created earlier in the flow.
// Best effort: a leftover account without a profile cannot log into any
// organization view and can be cleaned up offline.
func (s *service) rollbackAccount(ctx context.Context, user *identitydomain.User) {
	if err := s.identity.DeleteAccount(ctx, user.ID); err != nil {
		s.log.Error("registration rollback failed, identity account left behind",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}
}
