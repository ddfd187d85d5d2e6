package model

import "time"

// SourceWeb 所有经 HTTP API 写入的 pin 来源固定为 web
const SourceWeb = "web"

// Pin 时间线条目；user_id 为空表示应用共享 pin（经 topic 广播）
type Pin struct {
	GUID     string `gorm:"column:guid;primaryKey;type:varchar(36)"`
	AppUUID  string `gorm:"type:varchar(36);index:idx_pin_identity,unique;not null"`
	UserID   *int64 `gorm:"index:idx_pin_identity,unique"`
	ClientID string `gorm:"type:varchar(64);index:idx_pin_identity,unique;not null"`
	// 复合唯一键 idx_pin_identity = (app_uuid, user_id, client_id)：
	// 同一 client_id 重复 PUT 原地更新，guid 不变
	Time     time.Time `gorm:"index;not null"`
	Duration *int

	CreateNotification JSON `gorm:"type:jsonb"`
	UpdateNotification JSON `gorm:"type:jsonb"`
	Layout             JSON `gorm:"type:jsonb;not null"`
	Reminders          JSON `gorm:"type:jsonb"`
	Actions            JSON `gorm:"type:jsonb"`

	DataSource string    `gorm:"type:varchar(64);not null"`
	Source     string    `gorm:"type:varchar(8);not null"`
	CreateTime time.Time `gorm:"not null"`
	UpdateTime time.Time `gorm:"not null"`
}

func (Pin) TableName() string { return "timeline_pins" }

// Shared 共享 pin（无属主，面向订阅者扇出）
func (p *Pin) Shared() bool { return p.UserID == nil }
