package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/auth"
	"github.com/d60-Lab/timeline-sync/internal/model"
	"github.com/d60-Lab/timeline-sync/internal/push"
	"github.com/d60-Lab/timeline-sync/internal/repository"
)

// PinService pin 写路径：校验、落库、topic 扇出、事件压缩写，全部在一个事务内。
// 崩溃不会出现 pin 已更新而事件缺失（或相反）的中间态。
type PinService interface {
	UpsertUserPin(ctx context.Context, ident *auth.Identity, pinID string, payload *PinPayload) (model.JSON, error)
	DeleteUserPin(ctx context.Context, ident *auth.Identity, pinID string) (model.JSON, error)
	// UpsertSharedPin 共享 pin：扇出对象为更新时刻的订阅者，而非创建时刻
	UpsertSharedPin(ctx context.Context, appUUID string, topicNames []string, pinID string, payload *PinPayload) (model.JSON, error)
	DeleteSharedPin(ctx context.Context, appUUID string, pinID string) (model.JSON, error)
}

type pinService struct {
	db       *gorm.DB
	notifier push.Notifier
	now      func() time.Time
}

func NewPinService(db *gorm.DB, notifier push.Notifier) PinService {
	if notifier == nil {
		notifier = push.NopNotifier{}
	}
	return &pinService{db: db, notifier: notifier, now: time.Now}
}

func (s *pinService) UpsertUserPin(ctx context.Context, ident *auth.Identity, pinID string, payload *PinPayload) (model.JSON, error) {
	uid := ident.UserID
	return s.upsert(ctx, ident.AppUUID, &uid, ident.DataSource, nil, pinID, payload)
}

func (s *pinService) DeleteUserPin(ctx context.Context, ident *auth.Identity, pinID string) (model.JSON, error) {
	uid := ident.UserID
	return s.delete(ctx, ident.AppUUID, &uid, pinID)
}

func (s *pinService) UpsertSharedPin(ctx context.Context, appUUID string, topicNames []string, pinID string, payload *PinPayload) (model.JSON, error) {
	return s.upsert(ctx, appUUID, nil, "uuid:"+appUUID, topicNames, pinID, payload)
}

func (s *pinService) DeleteSharedPin(ctx context.Context, appUUID string, pinID string) (model.JSON, error) {
	return s.delete(ctx, appUUID, nil, pinID)
}

func (s *pinService) upsert(ctx context.Context, appUUID string, userID *int64, dataSource string, topicNames []string, pinID string, payload *PinPayload) (model.JSON, error) {
	now := s.now().UTC().Truncate(time.Second)
	pinTime, err := payload.Validate(pinID, now)
	if err != nil {
		return nil, err
	}

	var (
		snapshot   model.JSON
		interested []int64
		created    bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pins := repository.NewPinRepository(tx)
		topics := repository.NewTopicRepository(tx)
		events := repository.NewEventRepository(tx)

		topicIDs := make([]int64, 0, len(topicNames))
		for _, name := range topicNames {
			t, err := topics.Ensure(ctx, appUUID, name)
			if err != nil {
				return err
			}
			topicIDs = append(topicIDs, t.ID)
		}

		pin, err := pins.GetByClientID(ctx, appUUID, userID, pinID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			pin = &model.Pin{
				GUID:       uuid.New().String(),
				AppUUID:    appUUID,
				UserID:     userID,
				ClientID:   pinID,
				DataSource: dataSource,
				Source:     model.SourceWeb,
				CreateTime: now,
			}
			if err := payload.apply(pin, pinTime, now); err != nil {
				return err
			}
			if err := pins.Create(ctx, pin); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := payload.apply(pin, pinTime, now); err != nil {
				return err
			}
			if err := pins.Update(ctx, pin); err != nil {
				return err
			}
		}

		if err := topics.ReplacePinTopics(ctx, pin.GUID, topicIDs); err != nil {
			return err
		}

		if userID != nil {
			interested = []int64{*userID}
		} else {
			interested, err = topics.SubscriberIDs(ctx, topicIDs)
			if err != nil {
				return err
			}
		}

		names, err := topics.TopicNames(ctx, topicIDs)
		if err != nil {
			return err
		}
		snapshot, err = Snapshot(pin, names)
		if err != nil {
			return err
		}
		return events.Record(ctx, interested, model.EventPinCreate, pin.GUID, snapshot)
	})
	if err != nil {
		return nil, err
	}

	s.notify(payload, created, snapshot, interested)
	return snapshot, nil
}

func (s *pinService) delete(ctx context.Context, appUUID string, userID *int64, pinID string) (model.JSON, error) {
	var snapshot model.JSON
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pins := repository.NewPinRepository(tx)
		topics := repository.NewTopicRepository(tx)
		events := repository.NewEventRepository(tx)

		pin, err := pins.GetByClientID(ctx, appUUID, userID, pinID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		topicIDs, err := topics.PinTopicIDs(ctx, pin.GUID)
		if err != nil {
			return err
		}
		names, err := topics.TopicNames(ctx, topicIDs)
		if err != nil {
			return err
		}
		snapshot, err = Snapshot(pin, names)
		if err != nil {
			return err
		}

		// 终态事件覆盖所有仍持有该 pin 事件的用户，外加删除时刻的订阅者
		interested, err := deleteAudience(ctx, events, topics, pin, topicIDs, userID)
		if err != nil {
			return err
		}
		if err := events.DeleteByPinGUIDs(ctx, []string{pin.GUID}); err != nil {
			return err
		}
		if err := events.Record(ctx, interested, model.EventPinDelete, pin.GUID, snapshot); err != nil {
			return err
		}
		if err := topics.DeletePinTopics(ctx, []string{pin.GUID}); err != nil {
			return err
		}
		return pins.Delete(ctx, pin.GUID)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func deleteAudience(ctx context.Context, events repository.EventRepository, topics repository.TopicRepository, pin *model.Pin, topicIDs []int64, userID *int64) ([]int64, error) {
	if userID != nil {
		return []int64{*userID}, nil
	}
	holders, err := events.UserIDsForPin(ctx, pin.GUID)
	if err != nil {
		return nil, err
	}
	subscribers, err := topics.SubscriberIDs(ctx, topicIDs)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(holders)+len(subscribers))
	merged := make([]int64, 0, len(holders)+len(subscribers))
	for _, id := range append(holders, subscribers...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged, nil
}

// notify 推送在事务提交后异步触发，失败有损不回传
func (s *pinService) notify(payload *PinPayload, created bool, snapshot model.JSON, interested []int64) {
	var n *NotificationPayload
	if created {
		n = payload.CreateNotification
	} else {
		n = payload.UpdateNotification
	}
	if n == nil || len(interested) == 0 {
		return
	}
	var snap struct {
		GUID string `json:"guid"`
	}
	_ = json.Unmarshal(snapshot, &snap)
	s.notifier.Enqueue(push.Notification{
		UserIDs: interested,
		PinGUID: snap.GUID,
		Layout:  json.RawMessage(n.Layout),
	})
}
