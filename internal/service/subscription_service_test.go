package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/timeline-sync/internal/model"
)

func TestSubscribeIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubscriptionService(db)
	ctx := context.Background()
	ident := testIdentity(1)

	require.NoError(t, svc.Subscribe(ctx, ident, "news"))
	require.NoError(t, svc.Subscribe(ctx, ident, "news"))

	var count int64
	require.NoError(t, db.Model(&model.TopicSubscription{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	names, err := svc.List(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, names)
}

func TestUnsubscribeNonSubscriber(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubscriptionService(db)
	ctx := context.Background()
	ident := testIdentity(1)

	// 未订阅、topic 不存在：均幂等成功
	require.NoError(t, svc.Unsubscribe(ctx, ident, "ghost"))

	require.NoError(t, svc.Subscribe(ctx, ident, "news"))
	require.NoError(t, svc.Unsubscribe(ctx, ident, "news"))
	require.NoError(t, svc.Unsubscribe(ctx, ident, "news"))

	names, err := svc.List(ctx, ident)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListScopedToApp(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubscriptionService(db)
	ctx := context.Background()

	appA := testIdentity(1)
	appB := testIdentity(1)
	appB.AppUUID = "b2222222-0000-0000-0000-000000000000"

	require.NoError(t, svc.Subscribe(ctx, appA, "news"))
	require.NoError(t, svc.Subscribe(ctx, appB, "sports"))

	names, err := svc.List(ctx, appA)
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, names)

	names, err = svc.List(ctx, appB)
	require.NoError(t, err)
	assert.Equal(t, []string{"sports"}, names)
}
