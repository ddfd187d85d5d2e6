package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/repository"
	"github.com/d60-Lab/timeline-sync/pkg/logger"
)

// Retention pin 保留窗口：time 早于 now-2d 的 pin 整体清除
const Retention = 2 * 24 * time.Hour

// Sweeper 过期清理。级联删除事件与 topic 关联，不产生终态 delete 事件：
// 过期 pin 直接从后续同步响应中消失（既有产品取舍）。
type Sweeper struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSweeper(db *gorm.DB) *Sweeper {
	return &Sweeper{db: db, now: time.Now}
}

// SweepOnce 执行一轮清理，返回清除的 pin 数
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-Retention)
	var swept int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pins := repository.NewPinRepository(tx)
		topics := repository.NewTopicRepository(tx)
		events := repository.NewEventRepository(tx)

		guids, err := pins.ListExpiredGUIDs(ctx, cutoff)
		if err != nil {
			return err
		}
		if len(guids) == 0 {
			return nil
		}
		if err := events.DeleteByPinGUIDs(ctx, guids); err != nil {
			return err
		}
		if err := topics.DeletePinTopics(ctx, guids); err != nil {
			return err
		}
		if err := pins.DeleteByGUIDs(ctx, guids); err != nil {
			return err
		}
		swept = len(guids)
		return nil
	})
	return swept, err
}

// Start 启动周期清理循环，返回停止函数
func (s *Sweeper) Start(interval time.Duration) func(context.Context) error {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n, err := s.SweepOnce(context.Background())
				if err != nil {
					logger.Error("expiry sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("expired pins swept", zap.Int("count", n))
				}
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stop)
		return nil
	}
}
