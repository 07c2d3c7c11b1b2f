package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/zapdash/zapdash/internal/instance/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, inst *domain.Instance) error {
	return r.db.WithContext(ctx).Create(inst).Error
}

func (r *repository) FindByOrgAndID(ctx context.Context, orgID, id snowflake.ID) (*domain.Instance, error) {
	var inst domain.Instance
	err := r.db.WithContext(ctx).
		First(&inst, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, err
	}
	return &inst, nil
}

func (r *repository) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.Instance, error) {
	var instances []domain.Instance
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&instances).Error
	if err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *repository) UpdateWebhookURL(ctx context.Context, id snowflake.ID, url string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Instance{}).
		Where("id = ?", id).
		Updates(map[string]any{"webhook_url": url, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.Instance{}, "id = ?", id).Error
}

func (r *repository) DeleteByOrg(ctx context.Context, orgID snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.Instance{}, "organization_id = ?", orgID).Error
}
