package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/model"
)

// PinRepository pin 当前态仓储（按键寻址，级联由调用方显式执行）
type PinRepository interface {
	// GetByClientID 按 (app, owner, client_id) 查当前 pin；userID 为 nil 时匹配共享 pin
	GetByClientID(ctx context.Context, appUUID string, userID *int64, clientID string) (*model.Pin, error)
	Create(ctx context.Context, pin *model.Pin) error
	Update(ctx context.Context, pin *model.Pin) error
	Delete(ctx context.Context, guid string) error
	// ListExpiredGUIDs 列出 time 早于 before 的 pin（过期清理）
	ListExpiredGUIDs(ctx context.Context, before time.Time) ([]string, error)
	DeleteByGUIDs(ctx context.Context, guids []string) error
}

type pinRepository struct{ db *gorm.DB }

func NewPinRepository(db *gorm.DB) PinRepository { return &pinRepository{db: db} }

func (r *pinRepository) GetByClientID(ctx context.Context, appUUID string, userID *int64, clientID string) (*model.Pin, error) {
	q := r.db.WithContext(ctx).Where("app_uuid = ? AND client_id = ?", appUUID, clientID)
	if userID == nil {
		q = q.Where("user_id IS NULL")
	} else {
		q = q.Where("user_id = ?", *userID)
	}
	var pin model.Pin
	if err := q.First(&pin).Error; err != nil {
		return nil, err
	}
	return &pin, nil
}

func (r *pinRepository) Create(ctx context.Context, pin *model.Pin) error {
	return r.db.WithContext(ctx).Create(pin).Error
}

func (r *pinRepository) Update(ctx context.Context, pin *model.Pin) error {
	return r.db.WithContext(ctx).Save(pin).Error
}

func (r *pinRepository) Delete(ctx context.Context, guid string) error {
	return r.db.WithContext(ctx).Where("guid = ?", guid).Delete(&model.Pin{}).Error
}

func (r *pinRepository) ListExpiredGUIDs(ctx context.Context, before time.Time) ([]string, error) {
	var guids []string
	err := r.db.WithContext(ctx).Model(&model.Pin{}).
		Where("time < ?", before).
		Pluck("guid", &guids).Error
	return guids, err
}

func (r *pinRepository) DeleteByGUIDs(ctx context.Context, guids []string) error {
	if len(guids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("guid IN ?", guids).Delete(&model.Pin{}).Error
}
