package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/model"
	"github.com/d60-Lab/timeline-sync/internal/repository"
)

// SyncResult 一次增量拉取的结果。NextCursor 为 nil 表示用户日志为空，
// 客户端下次请求应省略游标。
type SyncResult struct {
	Events     []*model.TimelineEvent
	NextCursor *int64
}

// SyncService 无状态游标协议：返回 id > cursor 的事件及新游标。
// 游标取调用时刻的日志尾部，而非仅返回集的最大 id——无新事件时游标保持稳定。
type SyncService interface {
	Sync(ctx context.Context, userID, cursor int64) (*SyncResult, error)
}

type syncService struct {
	db       *gorm.DB
	pageSize int
}

func NewSyncService(db *gorm.DB, pageSize int) SyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &syncService{db: db, pageSize: pageSize}
}

func (s *syncService) Sync(ctx context.Context, userID, cursor int64) (*SyncResult, error) {
	events := repository.NewEventRepository(s.db)

	maxID, err := events.MaxID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if maxID == 0 {
		return &SyncResult{}, nil
	}

	list, err := events.ListSince(ctx, userID, cursor, s.pageSize)
	if err != nil {
		return nil, err
	}

	// 整页截断时游标停在页尾，避免跳过未返回的事件
	next := maxID
	if len(list) == s.pageSize {
		next = list[len(list)-1].ID
	}
	return &SyncResult{Events: list, NextCursor: &next}, nil
}
