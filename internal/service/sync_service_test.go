package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-sync/internal/model"
)

// 完整走一遍增量同步：创建 → 更新 → 删除 → 收敛
func TestSyncLifecycle(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pins := newTestPinService(db, now)
	sync := NewSyncService(db, 100)
	ctx := context.Background()
	ident := testIdentity(1)

	// 空日志：无事件，无游标
	res, err := sync.Sync(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Nil(t, res.NextCursor)

	_, err = pins.UpsertUserPin(ctx, ident, "p1", testPayload("p1", now.Add(time.Hour)))
	require.NoError(t, err)

	res, err = sync.Sync(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, model.EventPinCreate, res.Events[0].Type)
	require.NotNil(t, res.NextCursor)
	c1 := *res.NextCursor

	var first struct {
		GUID string `json:"guid"`
	}
	require.NoError(t, json.Unmarshal(res.Events[0].PinData, &first))

	// 更新：同 guid 的新 create 事件，游标前进
	update := testPayload("p1", now.Add(2*time.Hour))
	update.Layout = json.RawMessage(`{"type":"genericPin","title":"Edited"}`)
	_, err = pins.UpsertUserPin(ctx, ident, "p1", update)
	require.NoError(t, err)

	res, err = sync.Sync(ctx, 1, c1)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, model.EventPinCreate, res.Events[0].Type)
	var updated struct {
		GUID string `json:"guid"`
	}
	require.NoError(t, json.Unmarshal(res.Events[0].PinData, &updated))
	assert.Equal(t, first.GUID, updated.GUID)
	require.NotNil(t, res.NextCursor)
	c2 := *res.NextCursor
	assert.Greater(t, c2, c1)

	// 删除：终态 delete 事件
	_, err = pins.DeleteUserPin(ctx, ident, "p1")
	require.NoError(t, err)

	res, err = sync.Sync(ctx, 1, c2)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, model.EventPinDelete, res.Events[0].Type)
	require.NotNil(t, res.NextCursor)
	c3 := *res.NextCursor
	assert.Greater(t, c3, c2)

	// 收敛：无新写入时返回空集，游标稳定
	res, err = sync.Sync(ctx, 1, c3)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	require.NotNil(t, res.NextCursor)
	assert.Equal(t, c3, *res.NextCursor)
}

func TestSyncOrderingMonotonic(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pins := newTestPinService(db, now)
	sync := NewSyncService(db, 100)
	ctx := context.Background()
	ident := testIdentity(2)

	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := pins.UpsertUserPin(ctx, ident, id, testPayload(id, now.Add(time.Hour)))
		require.NoError(t, err)
	}

	res, err := sync.Sync(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, res.Events, 4)
	for i := 1; i < len(res.Events); i++ {
		assert.Greater(t, res.Events[i].ID, res.Events[i-1].ID)
	}
}

func TestSyncPageTruncation(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pins := newTestPinService(db, now)
	sync := NewSyncService(db, 2)
	ctx := context.Background()
	ident := testIdentity(3)

	for _, id := range []string{"a", "b", "c"} {
		_, err := pins.UpsertUserPin(ctx, ident, id, testPayload(id, now.Add(time.Hour)))
		require.NoError(t, err)
	}

	// 整页截断时游标停在页尾，续拉不丢事件
	res, err := sync.Sync(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	require.NotNil(t, res.NextCursor)
	assert.Equal(t, res.Events[1].ID, *res.NextCursor)

	res, err = sync.Sync(ctx, 3, *res.NextCursor)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
}
