package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/repository"
)

// SandboxTokenService 沙箱凭证下发：同一 (uid, app) 幂等返回同一凭证
type SandboxTokenService interface {
	GetOrCreate(ctx context.Context, userID int64, appUUID string) (string, error)
}

type sandboxTokenService struct {
	db *gorm.DB
}

func NewSandboxTokenService(db *gorm.DB) SandboxTokenService {
	return &sandboxTokenService{db: db}
}

func (s *sandboxTokenService) GetOrCreate(ctx context.Context, userID int64, appUUID string) (string, error) {
	tokens := repository.NewSandboxTokenRepository(s.db)
	t, err := tokens.GetOrCreate(ctx, userID, appUUID, uuid.New().String())
	if err != nil {
		return "", err
	}
	return t.Token, nil
}
