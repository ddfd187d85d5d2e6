package model

import "time"

// Topic 应用内命名广播频道
type Topic struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	AppUUID string `gorm:"type:varchar(36);index:idx_topic_app_name,unique;not null"`
	Name    string `gorm:"type:varchar(64);index:idx_topic_app_name,unique;not null"`
}

func (Topic) TableName() string { return "timeline_topics" }

// PinTopic 共享 pin 与 topic 的关联（显式外键，无对象反向引用）
type PinTopic struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	PinGUID string `gorm:"type:varchar(36);index:idx_pin_topic_pin;index:idx_pin_topic_pair,unique;not null"`
	TopicID int64  `gorm:"index:idx_pin_topic_pair,unique;not null"`
}

func (PinTopic) TableName() string { return "timeline_pin_topics" }

// TopicSubscription 用户对 topic 的订阅，(user_id, topic_id) 唯一
type TopicSubscription struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"index:idx_sub_user;index:idx_sub_pair,unique;not null"`
	TopicID   int64 `gorm:"index:idx_sub_pair,unique;not null"`
	CreatedAt time.Time
}

func (TopicSubscription) TableName() string { return "timeline_topic_subscriptions" }
