package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/d60-Lab/timeline-sync/internal/model"
	"github.com/d60-Lab/timeline-sync/pkg/timeutil"
)

// 时间窗：过去 2 天到未来 366 天之外的 pin 一律拒绝
const (
	pastWindow   = 2 * 24 * time.Hour
	futureWindow = 366 * 24 * time.Hour
)

// NotificationPayload createNotification / updateNotification 线上形态
type NotificationPayload struct {
	Layout json.RawMessage `json:"layout" binding:"required"`
	Time   string          `json:"time,omitempty"`
}

// ReminderPayload 单条提醒，time 必填
type ReminderPayload struct {
	Time   string          `json:"time" binding:"required"`
	Layout json.RawMessage `json:"layout" binding:"required"`
}

// PinPayload PUT 请求体。layout 除时间字段外不做内容校验，整体透传。
type PinPayload struct {
	ID                 string               `json:"id" binding:"required"`
	Time               string               `json:"time" binding:"required"`
	Duration           *int                 `json:"duration,omitempty"`
	Layout             json.RawMessage      `json:"layout" binding:"required"`
	CreateNotification *NotificationPayload `json:"createNotification,omitempty"`
	UpdateNotification *NotificationPayload `json:"updateNotification,omitempty"`
	Reminders          []ReminderPayload    `json:"reminders,omitempty" binding:"omitempty,max=3,dive"`
	Actions            []json.RawMessage    `json:"actions,omitempty"`
}

func inWindow(t, now time.Time) bool {
	return !t.Before(now.Add(-pastWindow)) && !t.After(now.Add(futureWindow))
}

// Validate 校验载荷并返回解析后的 pin 时间
func (p *PinPayload) Validate(pinID string, now time.Time) (time.Time, error) {
	if p.ID != pinID {
		return time.Time{}, &ValidationError{Rule: "id does not match path"}
	}
	t, err := timeutil.Parse(p.Time)
	if err != nil {
		return time.Time{}, &ValidationError{Rule: "time: bad format"}
	}
	if !inWindow(t, now) {
		return time.Time{}, &ValidationError{Rule: "time: outside window"}
	}
	// createNotification 在 pin 创建时刻触发，自带 time 无意义，视为不一致拒绝
	if p.CreateNotification != nil && p.CreateNotification.Time != "" {
		return time.Time{}, &ValidationError{Rule: "createNotification: time not allowed"}
	}
	if p.UpdateNotification != nil && p.UpdateNotification.Time != "" {
		nt, err := timeutil.Parse(p.UpdateNotification.Time)
		if err != nil {
			return time.Time{}, &ValidationError{Rule: "updateNotification.time: bad format"}
		}
		if !inWindow(nt, now) {
			return time.Time{}, &ValidationError{Rule: "updateNotification.time: outside window"}
		}
	}
	if len(p.Reminders) > 3 {
		return time.Time{}, &ValidationError{Rule: "reminders: more than 3"}
	}
	for i, rem := range p.Reminders {
		rt, err := timeutil.Parse(rem.Time)
		if err != nil {
			return time.Time{}, &ValidationError{Rule: fmt.Sprintf("reminders[%d].time: bad format", i)}
		}
		if !inWindow(rt, now) {
			return time.Time{}, &ValidationError{Rule: fmt.Sprintf("reminders[%d].time: outside window", i)}
		}
	}
	return t, nil
}

// apply 将载荷写入 pin 行；guid / create_time / 归属字段不受影响
func (p *PinPayload) apply(pin *model.Pin, pinTime, now time.Time) error {
	pin.Time = pinTime
	pin.Duration = p.Duration
	pin.Layout = model.JSON(p.Layout)
	pin.UpdateTime = now

	pin.CreateNotification = nil
	if p.CreateNotification != nil {
		raw, err := json.Marshal(p.CreateNotification)
		if err != nil {
			return err
		}
		pin.CreateNotification = raw
	}
	pin.UpdateNotification = nil
	if p.UpdateNotification != nil {
		raw, err := json.Marshal(p.UpdateNotification)
		if err != nil {
			return err
		}
		pin.UpdateNotification = raw
	}
	pin.Reminders = nil
	if len(p.Reminders) > 0 {
		raw, err := json.Marshal(p.Reminders)
		if err != nil {
			return err
		}
		pin.Reminders = raw
	}
	pin.Actions = nil
	if len(p.Actions) > 0 {
		raw, err := json.Marshal(p.Actions)
		if err != nil {
			return err
		}
		pin.Actions = raw
	}
	return nil
}

// Snapshot pin 的线上读形态（也是事件快照存储形态）。
// 可选字段缺省时省略，与历史客户端兼容。
func Snapshot(pin *model.Pin, topicKeys []string) (model.JSON, error) {
	if topicKeys == nil {
		topicKeys = []string{}
	}
	out := map[string]any{
		"id":         pin.ClientID,
		"time":       timeutil.Format(pin.Time),
		"layout":     json.RawMessage(pin.Layout),
		"guid":       pin.GUID,
		"dataSource": pin.DataSource,
		"source":     pin.Source,
		"createTime": timeutil.Format(pin.CreateTime),
		"updateTime": timeutil.Format(pin.UpdateTime),
		"topicKeys":  topicKeys,
	}
	if pin.Duration != nil {
		out["duration"] = *pin.Duration
	}
	if len(pin.CreateNotification) > 0 {
		out["createNotification"] = json.RawMessage(pin.CreateNotification)
	}
	if len(pin.UpdateNotification) > 0 {
		out["updateNotification"] = json.RawMessage(pin.UpdateNotification)
	}
	if len(pin.Reminders) > 0 {
		out["reminders"] = json.RawMessage(pin.Reminders)
	}
	if len(pin.Actions) > 0 {
		out["actions"] = json.RawMessage(pin.Actions)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return model.JSON(raw), nil
}
