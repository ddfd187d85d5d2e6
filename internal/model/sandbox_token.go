package model

import "time"

// SandboxToken 开发者预发布测试凭证，(user_id, app_uuid) 唯一
type SandboxToken struct {
	Token     string `gorm:"primaryKey;type:varchar(64)"`
	UserID    int64  `gorm:"index:idx_sandbox_user_app,unique;not null"`
	AppUUID   string `gorm:"type:varchar(36);index:idx_sandbox_user_app,unique;not null"`
	CreatedAt time.Time
}

func (SandboxToken) TableName() string { return "sandbox_tokens" }
