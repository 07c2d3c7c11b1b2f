package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	instancedomain "github.com/zapdash/zapdash/internal/instance/domain"
	"github.com/zapdash/zapdash/internal/observability/metrics"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"github.com/zapdash/zapdash/internal/providers/sessionapi"
	"github.com/zapdash/zapdash/internal/teardown/domain"
	"go.uber.org/zap"
)

type orchestrator struct {
	log       *zap.Logger
	orgRepo   orgdomain.Repository
	instances instancedomain.Repository
	client    sessionapi.Client
	identity  identitydomain.Service
	metrics   *metrics.Metrics
}

func NewOrchestrator(
	log *zap.Logger,
	orgRepo orgdomain.Repository,
	instances instancedomain.Repository,
	client sessionapi.Client,
	identity identitydomain.Service,
	m *metrics.Metrics,
) domain.Orchestrator {
	return &orchestrator{
		log:       log.Named("teardown"),
		orgRepo:   orgRepo,
		instances: instances,
		client:    client,
		identity:  identity,
		metrics:   m,
	}
}

// Teardown runs each step once, in order, with no rollback. A store failure
// stops the run and comes back as a *domain.StepError naming the step and
// entity, leaving everything after it for the operator.
func (o *orchestrator) Teardown(ctx context.Context, actingUserID snowflake.ID) error {
	profile, err := o.guard(ctx, actingUserID)
	if err != nil {
		o.metrics.RecordTeardownStep(ctx, domain.StepGuard, "refused")
		return err
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepGuard, "ok")

	orgID := profile.OrgID
	log := o.log.With(
		zap.String("org_id", orgID.String()),
		zap.String("acting_user_id", actingUserID.String()),
	)
	log.Info("organization teardown started")

	instances, err := o.instances.ListByOrg(ctx, orgID)
	if err != nil {
		return o.fail(ctx, domain.StepExternalCleanup, orgID.String(), err)
	}
	for _, inst := range instances {
		if inst.ExternalID == "" {
			continue
		}
		// Best effort: the external system may already have dropped the
		// session. Never fatal.
		if err := o.client.DeleteUser(ctx, inst.ExternalID); err != nil {
			log.Warn("external session cleanup failed, continuing",
				zap.String("instance_id", inst.ID.String()),
				zap.String("external_id", inst.ExternalID),
				zap.Error(err),
			)
		}
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepExternalCleanup, "ok")

	if err := o.instances.DeleteByOrg(ctx, orgID); err != nil {
		return o.fail(ctx, domain.StepDeleteInstances, orgID.String(), err)
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepDeleteInstances, "ok")

	members, err := o.orgRepo.ListProfilesByOrg(ctx, orgID)
	if err != nil {
		return o.fail(ctx, domain.StepDeleteMembers, orgID.String(), err)
	}
	for _, member := range members {
		if member.ID == actingUserID {
			continue
		}
		// Profile first, identity account second. A failure between the two
		// leaves a dangling identity account, which is the acceptable
		// failure mode; the reverse order would leave a profile pointing at
		// a dead account.
		if err := o.orgRepo.DeleteProfile(ctx, member.ID); err != nil {
			return o.fail(ctx, domain.StepDeleteMembers, member.ID.String(), err)
		}
		if err := o.identity.DeleteAccount(ctx, member.ID); err != nil {
			return o.fail(ctx, domain.StepDeleteMembers, member.ID.String(), err)
		}
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepDeleteMembers, "ok")

	if err := o.orgRepo.DeleteProfile(ctx, actingUserID); err != nil {
		return o.fail(ctx, domain.StepDeleteOwnProfile, actingUserID.String(), err)
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepDeleteOwnProfile, "ok")

	if err := o.orgRepo.DeleteOrganization(ctx, orgID); err != nil {
		// The org row survives as an empty shell with no members.
		return o.fail(ctx, domain.StepDeleteOrganization, orgID.String(), err)
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepDeleteOrganization, "ok")

	if err := o.identity.DeleteAccount(ctx, actingUserID); err != nil {
		return o.fail(ctx, domain.StepDeleteOwnAccount, actingUserID.String(), err)
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepDeleteOwnAccount, "ok")

	if err := o.identity.RevokeUserSessions(ctx, actingUserID); err != nil {
		return o.fail(ctx, domain.StepRevokeSessions, actingUserID.String(), err)
	}
	o.metrics.RecordTeardownStep(ctx, domain.StepRevokeSessions, "ok")

	log.Info("organization teardown finished")
	return nil
}

// guard re-verifies that the acting user is the organization's only admin.
// Requiring co-admins to be demoted or removed first is deliberate friction
// for an unrecoverable operation.
func (o *orchestrator) guard(ctx context.Context, actingUserID snowflake.ID) (*orgdomain.Profile, error) {
	profile, err := o.orgRepo.FindProfile(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if profile.Role != orgdomain.RoleAdmin {
		return nil, orgdomain.ErrNotAdmin
	}

	admins, err := o.orgRepo.CountAdmins(ctx, profile.OrgID)
	if err != nil {
		return nil, err
	}
	if admins != 1 {
		return nil, orgdomain.ErrCoAdminsPresent
	}

	return profile, nil
}

func (o *orchestrator) fail(ctx context.Context, step, entityID string, err error) error {
	o.metrics.RecordTeardownStep(ctx, step, "failed")
	o.log.Error("teardown step failed",
		zap.String("step", step),
		zap.String("entity_id", entityID),
		zap.Error(err),
	)
	return &domain.StepError{Step: step, EntityID: entityID, Err: err}
}
