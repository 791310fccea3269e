package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of credential events. It does not embed
// BaseModel because rows are never updated or soft-deleted.
type AuditLog struct {
	ID        uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    *uuid.UUID             `json:"userID,omitempty" gorm:"type:uuid;index"`
	Action    string                 `json:"action" gorm:"type:varchar(50);not null;index"`
	Outcome   string                 `json:"outcome" gorm:"type:varchar(30);not null"`
	Details   map[string]interface{} `json:"details,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time              `json:"createdAt" gorm:"not null;index"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
