package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Instance is a WhatsApp session instance owned by an organization. The
// external session system holds the actual session; we keep its identifier
// and the per-instance API token it issued.
type Instance struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID      snowflake.ID `json:"organization_id" gorm:"column:organization_id;index"`
	Name       string       `json:"name"`
	ExternalID string       `json:"external_id" gorm:"column:external_id"`
	Token      string       `json:"-"`
	WebhookURL string       `json:"webhook_url" gorm:"column:webhook_url"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (Instance) TableName() string {
	return "instances"
}
