package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-sync/internal/model"
	"github.com/d60-Lab/timeline-sync/internal/repository"
)

func TestSweepOnceRemovesExpired(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pins := newTestPinService(db, now)
	ctx := context.Background()

	topics := repository.NewTopicRepository(db)
	topic, err := topics.Ensure(ctx, testApp, "news")
	require.NoError(t, err)
	require.NoError(t, topics.Subscribe(ctx, 1, topic.ID))

	snap, err := pins.UpsertSharedPin(ctx, testApp, []string{"news"}, "old-pin", testPayload("old-pin", now.Add(time.Hour)))
	require.NoError(t, err)
	expiredGUID := decodeSnapshot(t, snap)["guid"].(string)

	_, err = pins.UpsertUserPin(ctx, testIdentity(1), "fresh-pin", testPayload("fresh-pin", now.Add(-24*time.Hour)))
	require.NoError(t, err)

	// 写入时校验挡住过期时间，直接把行改旧模拟时间流逝
	require.NoError(t, db.Model(&model.Pin{}).Where("guid = ?", expiredGUID).
		Update("time", now.Add(-72*time.Hour)).Error)

	sweeper := &Sweeper{db: db, now: func() time.Time { return now }}
	n, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 过期 pin 连同事件、topic 关联一并清除，且不产生终态 delete 事件
	var count int64
	require.NoError(t, db.Model(&model.Pin{}).Where("guid = ?", expiredGUID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, db.Model(&model.TimelineEvent{}).Where("pin_guid = ?", expiredGUID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, db.Model(&model.PinTopic{}).Where("pin_guid = ?", expiredGUID).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// 窗口内的 pin 不受影响
	require.NoError(t, db.Model(&model.Pin{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	events := eventsFor(t, db, 1)
	require.Len(t, events, 1)

	var fresh model.Pin
	require.NoError(t, db.Where("guid = ?", events[0].PinGUID).First(&fresh).Error)
	assert.Equal(t, "fresh-pin", fresh.ClientID)
}

func TestSweepOnceEmpty(t *testing.T) {
	db := setupTestDB(t)
	n, err := NewSweeper(db).SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
