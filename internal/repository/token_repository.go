package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/model"
)

// SandboxTokenRepository 沙箱凭证仓储
type SandboxTokenRepository interface {
	// GetByToken 按凭证精确匹配
	GetByToken(ctx context.Context, token string) (*model.SandboxToken, error)
	// GetOrCreate 幂等下发：同一 (user, app) 始终返回同一凭证
	GetOrCreate(ctx context.Context, userID int64, appUUID, candidate string) (*model.SandboxToken, error)
}

type sandboxTokenRepository struct{ db *gorm.DB }

func NewSandboxTokenRepository(db *gorm.DB) SandboxTokenRepository {
	return &sandboxTokenRepository{db: db}
}

func (r *sandboxTokenRepository) GetByToken(ctx context.Context, token string) (*model.SandboxToken, error) {
	var t model.SandboxToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *sandboxTokenRepository) GetOrCreate(ctx context.Context, userID int64, appUUID, candidate string) (*model.SandboxToken, error) {
	var t model.SandboxToken
	err := r.db.WithContext(ctx).
		Where(model.SandboxToken{UserID: userID, AppUUID: appUUID}).
		Attrs(model.SandboxToken{Token: candidate}).
		FirstOrCreate(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
