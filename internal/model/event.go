package model

import "time"

// 事件类型为封闭集合；更新复用 pin.create（客户端按 upsert 处理），线上契约不可改
const (
	EventPinCreate = "timeline.pin.create"
	EventPinDelete = "timeline.pin.delete"
)

// TimelineEvent 用户可见事件日志。自增 id 即同步游标，严格递增。
// (user_id, pin_guid) 唯一：每次变更先删旧事件再插新事件（写时压缩），
// 一个 pin 对一个用户最多存在一条存活事件。
// pin_data 为写入时刻的 pin 线上 JSON 快照，终态 delete 事件因此不依赖 pin 行存活。
type TimelineEvent struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"index:idx_event_user;index:idx_event_user_pin,unique;not null"`
	Type      string `gorm:"type:varchar(32);not null"`
	PinGUID   string `gorm:"type:varchar(36);index:idx_event_pin;index:idx_event_user_pin,unique;not null"`
	PinData   JSON   `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
}

func (TimelineEvent) TableName() string { return "user_timeline" }
