package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/timeline-sync/internal/model"
)

// TopicRepository topic / 订阅 / pin-topic 关联仓储
type TopicRepository interface {
	// Ensure 幂等 get-or-create
	Ensure(ctx context.Context, appUUID, name string) (*model.Topic, error)
	GetByName(ctx context.Context, appUUID, name string) (*model.Topic, error)
	// Subscribe 幂等：重复订阅不报错
	Subscribe(ctx context.Context, userID, topicID int64) error
	// Unsubscribe 幂等：未订阅时为空操作
	Unsubscribe(ctx context.Context, userID, topicID int64) error
	// SubscriberIDs 去重后的订阅者集合（扇出用）
	SubscriberIDs(ctx context.Context, topicIDs []int64) ([]int64, error)
	ListSubscribedNames(ctx context.Context, userID int64, appUUID string) ([]string, error)
	// ReplacePinTopics 将 pin 的关联重置为给定 topic 集合
	ReplacePinTopics(ctx context.Context, pinGUID string, topicIDs []int64) error
	PinTopicIDs(ctx context.Context, pinGUID string) ([]int64, error)
	TopicNames(ctx context.Context, topicIDs []int64) ([]string, error)
	DeletePinTopics(ctx context.Context, pinGUIDs []string) error
}

type topicRepository struct{ db *gorm.DB }

func NewTopicRepository(db *gorm.DB) TopicRepository { return &topicRepository{db: db} }

func (r *topicRepository) Ensure(ctx context.Context, appUUID, name string) (*model.Topic, error) {
	var t model.Topic
	err := r.db.WithContext(ctx).
		Where(model.Topic{AppUUID: appUUID, Name: name}).
		FirstOrCreate(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *topicRepository) GetByName(ctx context.Context, appUUID, name string) (*model.Topic, error) {
	var t model.Topic
	err := r.db.WithContext(ctx).
		Where("app_uuid = ? AND name = ?", appUUID, name).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *topicRepository) Subscribe(ctx context.Context, userID, topicID int64) error {
	sub := &model.TopicSubscription{UserID: userID, TopicID: topicID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(sub).Error
}

func (r *topicRepository) Unsubscribe(ctx context.Context, userID, topicID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		Delete(&model.TopicSubscription{}).Error
}

func (r *topicRepository) SubscriberIDs(ctx context.Context, topicIDs []int64) ([]int64, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.TopicSubscription{}).
		Distinct("user_id").
		Where("topic_id IN ?", topicIDs).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *topicRepository) ListSubscribedNames(ctx context.Context, userID int64, appUUID string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&model.Topic{}).
		Joins("JOIN timeline_topic_subscriptions s ON s.topic_id = timeline_topics.id").
		Where("s.user_id = ? AND timeline_topics.app_uuid = ?", userID, appUUID).
		Order("timeline_topics.name").
		Pluck("timeline_topics.name", &names).Error
	return names, err
}

func (r *topicRepository) ReplacePinTopics(ctx context.Context, pinGUID string, topicIDs []int64) error {
	if err := r.db.WithContext(ctx).Where("pin_guid = ?", pinGUID).Delete(&model.PinTopic{}).Error; err != nil {
		return err
	}
	if len(topicIDs) == 0 {
		return nil
	}
	links := make([]model.PinTopic, 0, len(topicIDs))
	for _, id := range topicIDs {
		links = append(links, model.PinTopic{PinGUID: pinGUID, TopicID: id})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func (r *topicRepository) PinTopicIDs(ctx context.Context, pinGUID string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.PinTopic{}).
		Where("pin_guid = ?", pinGUID).
		Pluck("topic_id", &ids).Error
	return ids, err
}

func (r *topicRepository) TopicNames(ctx context.Context, topicIDs []int64) ([]string, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	var names []string
	err := r.db.WithContext(ctx).Model(&model.Topic{}).
		Where("id IN ?", topicIDs).
		Order("name").
		Pluck("name", &names).Error
	return names, err
}

func (r *topicRepository) DeletePinTopics(ctx context.Context, pinGUIDs []string) error {
	if len(pinGUIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("pin_guid IN ?", pinGUIDs).Delete(&model.PinTopic{}).Error
}
