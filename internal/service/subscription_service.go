package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/auth"
	"github.com/d60-Lab/timeline-sync/internal/repository"
)

// SubscriptionService 用户订阅管理，subscribe/unsubscribe 均幂等
type SubscriptionService interface {
	Subscribe(ctx context.Context, ident *auth.Identity, topicName string) error
	Unsubscribe(ctx context.Context, ident *auth.Identity, topicName string) error
	List(ctx context.Context, ident *auth.Identity) ([]string, error)
}

type subscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) SubscriptionService {
	return &subscriptionService{db: db}
}

func (s *subscriptionService) Subscribe(ctx context.Context, ident *auth.Identity, topicName string) error {
	topics := repository.NewTopicRepository(s.db)
	t, err := topics.Ensure(ctx, ident.AppUUID, topicName)
	if err != nil {
		return err
	}
	return topics.Subscribe(ctx, ident.UserID, t.ID)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, ident *auth.Identity, topicName string) error {
	topics := repository.NewTopicRepository(s.db)
	t, err := topics.GetByName(ctx, ident.AppUUID, topicName)
	if err != nil {
		// topic 不存在等价于未订阅，幂等返回
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return topics.Unsubscribe(ctx, ident.UserID, t.ID)
}

func (s *subscriptionService) List(ctx context.Context, ident *auth.Identity) ([]string, error) {
	topics := repository.NewTopicRepository(s.db)
	names, err := topics.ListSubscribedNames(ctx, ident.UserID, ident.AppUUID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
