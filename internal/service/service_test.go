package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/internal/model"
	"github.com/d60-Lab/timeline-sync/internal/push"
	"github.com/d60-Lab/timeline-sync/pkg/database"
	"github.com/d60-Lab/timeline-sync/pkg/timeutil"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestPinService(db *gorm.DB, now time.Time) *pinService {
	return &pinService{db: db, notifier: push.NopNotifier{}, now: func() time.Time { return now }}
}

func testPayload(id string, pinTime time.Time) *PinPayload {
	return &PinPayload{
		ID:     id,
		Time:   timeutil.Format(pinTime),
		Layout: json.RawMessage(`{"type":"genericPin","title":"Test"}`),
	}
}

func eventsFor(t *testing.T, db *gorm.DB, userID int64) []model.TimelineEvent {
	t.Helper()
	var events []model.TimelineEvent
	require.NoError(t, db.Where("user_id = ?", userID).Order("id ASC").Find(&events).Error)
	return events
}

func decodeSnapshot(t *testing.T, snap model.JSON) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(snap, &out))
	return out
}
