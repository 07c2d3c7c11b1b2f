package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cenkalti/backoff/v5"
	"github.com/zapdash/zapdash/internal/config"
	"github.com/zapdash/zapdash/internal/instance/domain"
	"github.com/zapdash/zapdash/internal/observability/metrics"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"github.com/zapdash/zapdash/internal/providers/sessionapi"
	"go.uber.org/zap"
)

// webhookEvents is the event subscription applied whenever a webhook is
// configured; the external system interprets "All" as every event type.
var webhookEvents = []string{"All"}

type service struct {
	log     *zap.Logger
	repo    domain.Repository
	orgRepo orgdomain.Repository
	client  sessionapi.Client
	metrics *metrics.Metrics
	genID   *snowflake.Node

	qrInterval time.Duration
	qrMaxTries int
}

func NewService(
	cfg config.Config,
	log *zap.Logger,
	repo domain.Repository,
	orgRepo orgdomain.Repository,
	client sessionapi.Client,
	m *metrics.Metrics,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		log:        log.Named("instance.service"),
		repo:       repo,
		orgRepo:    orgRepo,
		client:     client,
		metrics:    m,
		genID:      genID,
		qrInterval: cfg.SessionAPI.QRInterval,
		qrMaxTries: cfg.SessionAPI.QRMaxTries,
	}
}

func (s *service) Create(ctx context.Context, actingUserID snowflake.ID, name string) (*domain.Instance, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInstanceName
	}

	profile, err := s.orgRepo.FindProfile(ctx, actingUserID)
	if err != nil {
		return nil, err
	}

	token, err := newInstanceToken()
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateInstance(ctx, sessionapi.CreateInstanceRequest{
		Name:   name,
		OrgID:  profile.OrgID.String(),
		UserID: actingUserID.String(),
		Token:  token,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inst := &domain.Instance{
		ID:         s.genID.Generate(),
		OrgID:      profile.OrgID,
		Name:       name,
		ExternalID: created.ExternalID,
		Token:      token,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, inst); err != nil {
		// The external instance now has no local owner; keep its id in the
		// log so an operator can remove it.
		s.log.Error("instance row insert failed after external provisioning",
			zap.String("external_id", created.ExternalID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("instance created",
		zap.String("instance_id", inst.ID.String()),
		zap.String("org_id", profile.OrgID.String()),
	)
	return inst, nil
}

func (s *service) List(ctx context.Context, actingUserID snowflake.ID) ([]domain.Instance, error) {
	profile, err := s.orgRepo.FindProfile(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOrg(ctx, profile.OrgID)
}

func (s *service) SetWebhook(ctx context.Context, actingUserID, instanceID snowflake.ID, url string) (*domain.Instance, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, domain.ErrInvalidWebhookURL
	}

	inst, err := s.scoped(ctx, actingUserID, instanceID)
	if err != nil {
		return nil, err
	}

	err = s.client.SetWebhook(ctx, inst.Token, sessionapi.WebhookRequest{
		URL:    url,
		Events: webhookEvents,
		Active: true,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWebhookURL(ctx, inst.ID, url); err != nil {
		return nil, err
	}
	inst.WebhookURL = url
	return inst, nil
}

func (s *service) RemoveWebhook(ctx context.Context, actingUserID, instanceID snowflake.ID) (*domain.Instance, error) {
	inst, err := s.scoped(ctx, actingUserID, instanceID)
	if err != nil {
		return nil, err
	}

	err = s.client.SetWebhook(ctx, inst.Token, sessionapi.WebhookRequest{
		URL:    "",
		Events: webhookEvents,
		Active: false,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWebhookURL(ctx, inst.ID, ""); err != nil {
		return nil, err
	}
	inst.WebhookURL = ""
	return inst, nil
}

func (s *service) Delete(ctx context.Context, actingUserID, instanceID snowflake.ID) error {
	inst, err := s.scoped(ctx, actingUserID, instanceID)
	if err != nil {
		return err
	}

	// External removal comes first and is fatal: deleting the row while the
	// external session lives on would strand a running session with no owner.
	if err := s.client.DeleteUser(ctx, inst.ExternalID); err != nil {
		s.log.Error("external instance removal failed",
			zap.String("instance_id", inst.ID.String()),
			zap.String("external_id", inst.ExternalID),
			zap.Error(err),
		)
		return err
	}

	return s.repo.Delete(ctx, inst.ID)
}

func (s *service) Connect(ctx context.Context, actingUserID, instanceID snowflake.ID) (string, error) {
	inst, err := s.scoped(ctx, actingUserID, instanceID)
	if err != nil {
		return "", err
	}

	operation := func() (string, error) {
		qr, err := s.client.FetchQRCode(ctx, inst.Token)
		if err != nil {
			if errors.Is(err, sessionapi.ErrQRNotReady) {
				s.metrics.RecordQRPollAttempt(ctx, "not_ready")
				return "", err
			}
			s.metrics.RecordQRPollAttempt(ctx, "error")
			return "", backoff.Permanent(err)
		}
		s.metrics.RecordQRPollAttempt(ctx, "ok")
		return qr, nil
	}

	qr, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.qrInterval)),
		backoff.WithMaxTries(uint(s.qrMaxTries)),
	)
	if err != nil {
		if errors.Is(err, sessionapi.ErrQRNotReady) {
			s.log.Warn("qr polling exhausted",
				zap.String("instance_id", inst.ID.String()),
				zap.Int("max_tries", s.qrMaxTries),
			)
			return "", domain.ErrQRTimeout
		}
		return "", err
	}
	return qr, nil
}

func (s *service) scoped(ctx context.Context, actingUserID, instanceID snowflake.ID) (*domain.Instance, error) {
	profile, err := s.orgRepo.FindProfile(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByOrgAndID(ctx, profile.OrgID, instanceID)
}

func newInstanceToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate instance token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
