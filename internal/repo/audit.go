package repo

import (
	"context"
	"time"

	"github.com/adventskalender/backend/internal/models"
)

func (r *GormRepo) AppendAudit(ctx context.Context, action string, userID *uint, description *string) (*models.AuditEvent, error) {
	event := models.AuditEvent{
		TimeOfAction: time.Now().UTC(),
		UserID:       userID,
		Action:       action,
		Description:  description,
	}
	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *GormRepo) AuditCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.AuditEvent{}).Count(&count).Error
	return count, err
}
