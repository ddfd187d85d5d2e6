package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/model"
)

// EventRepository 用户时间线事件日志仓储。
// Record 的删旧插新必须与 pin 写入共处一个事务，调用方传入事务句柄保证原子性。
type EventRepository interface {
	// Record 对每个目标用户执行写时压缩：删除该 (user, pin) 的存活事件后插入新事件
	Record(ctx context.Context, userIDs []int64, eventType, pinGUID string, pinData model.JSON) error
	// UserIDsForPin 当前持有该 pin 存活事件的用户集合
	UserIDsForPin(ctx context.Context, pinGUID string) ([]int64, error)
	DeleteByPinGUIDs(ctx context.Context, pinGUIDs []string) error
	// ListSince 按 id 升序返回 id > afterID 的事件
	ListSince(ctx context.Context, userID, afterID int64, limit int) ([]*model.TimelineEvent, error)
	// MaxID 用户日志尾部 id，日志为空时返回 0
	MaxID(ctx context.Context, userID int64) (int64, error)
}

type eventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) EventRepository { return &eventRepository{db: db} }

func (r *eventRepository) Record(ctx context.Context, userIDs []int64, eventType, pinGUID string, pinData model.JSON) error {
	if len(userIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND pin_guid = ?", userIDs, pinGUID).
		Delete(&model.TimelineEvent{}).Error
	if err != nil {
		return err
	}
	events := make([]model.TimelineEvent, 0, len(userIDs))
	for _, uid := range userIDs {
		events = append(events, model.TimelineEvent{
			UserID:  uid,
			Type:    eventType,
			PinGUID: pinGUID,
			PinData: pinData,
		})
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *eventRepository) UserIDsForPin(ctx context.Context, pinGUID string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.TimelineEvent{}).
		Distinct("user_id").
		Where("pin_guid = ?", pinGUID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *eventRepository) DeleteByPinGUIDs(ctx context.Context, pinGUIDs []string) error {
	if len(pinGUIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("pin_guid IN ?", pinGUIDs).Delete(&model.TimelineEvent{}).Error
}

func (r *eventRepository) ListSince(ctx context.Context, userID, afterID int64, limit int) ([]*model.TimelineEvent, error) {
	var events []*model.TimelineEvent
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, afterID).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}

func (r *eventRepository) MaxID(ctx context.Context, userID int64) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).Model(&model.TimelineEvent{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(id), 0)").
		Row().Scan(&max)
	return max, err
}
