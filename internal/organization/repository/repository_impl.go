package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/zapdash/zapdash/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repository) FindOrganizationByName(ctx context.Context, name string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).
		First(&org, "name_fold = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) FindOrganizationByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) DeleteOrganization(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.Organization{}, "id = ?", id).Error
}

func (r *repository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) FindProfile(ctx context.Context, id snowflake.ID) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repository) ListProfilesByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.Profile, error) {
	var profiles []domain.Profile
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *repository) CountAdmins(ctx context.Context, orgID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("organization_id = ? AND role = ?", orgID, domain.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) UpdateRole(ctx context.Context, profileID snowflake.ID, role string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", profileID).
		Updates(map[string]any{"role": role, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) DeleteProfile(ctx context.Context, profileID snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.Profile{}, "id = ?", profileID).Error
}

// The derived-table form keeps the admin-count subquery legal on mysql,
// which rejects reading the update target directly.
const adminCountGuard = `(SELECT cnt FROM (SELECT COUNT(*) AS cnt FROM profiles WHERE organization_id = ? AND role = 'admin') AS admin_counts) > 1`

func (r *repository) DemoteAdminGuarded(ctx context.Context, orgID, profileID snowflake.ID) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE profiles SET role = ?, updated_at = ?
		 WHERE id = ? AND organization_id = ? AND role = ? AND `+adminCountGuard,
		domain.RoleMember,
		time.Now().UTC(),
		profileID,
		orgID,
		domain.RoleAdmin,
		orgID,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repository) DeleteAdminProfileGuarded(ctx context.Context, orgID, profileID snowflake.ID) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(
		`DELETE FROM profiles
		 WHERE id = ? AND organization_id = ? AND role = ? AND `+adminCountGuard,
		profileID,
		orgID,
		domain.RoleAdmin,
		orgID,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
