package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/config"
	"github.com/d60-Lab/timeline-sync/internal/model"
	"github.com/d60-Lab/timeline-sync/internal/repository"
	"github.com/d60-Lab/timeline-sync/pkg/database"
)

func newTestResolver(t *testing.T, appstoreURL, authURL string) (Resolver, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	r := NewResolver(repository.NewSandboxTokenRepository(db), config.AuthConfig{
		AuthURL:     authURL,
		AppstoreURL: appstoreURL,
		Timeout:     2 * time.Second,
	})
	return r, db
}

func TestResolveUserTokenSandboxFirst(t *testing.T) {
	// 沙箱表命中时不得触达 appstore
	appstore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected appstore call: %s", r.URL.Path)
	}))
	defer appstore.Close()

	r, db := newTestResolver(t, appstore.URL, "")
	require.NoError(t, db.Create(&model.SandboxToken{
		Token:   "sandbox-token-1",
		UserID:  42,
		AppUUID: "app-1",
	}).Error)

	ident, err := r.ResolveUserToken(context.Background(), "sandbox-token-1")
	require.NoError(t, err)
	assert.EqualValues(t, 42, ident.UserID)
	assert.Equal(t, "app-1", ident.AppUUID)
	assert.Equal(t, "sandbox-uuid:app-1", ident.DataSource)
}

func TestResolveUserTokenViaLocker(t *testing.T) {
	appstore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/locker/by_token/locker-token", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id": 7, "app_uuid": "app-2"}`))
	}))
	defer appstore.Close()

	r, _ := newTestResolver(t, appstore.URL, "")
	ident, err := r.ResolveUserToken(context.Background(), "locker-token")
	require.NoError(t, err)
	assert.EqualValues(t, 7, ident.UserID)
	assert.Equal(t, "uuid:app-2", ident.DataSource)
}

func TestResolveUserTokenRejected(t *testing.T) {
	appstore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer appstore.Close()

	r, _ := newTestResolver(t, appstore.URL, "")
	_, err := r.ResolveUserToken(context.Background(), "bad-token")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveUserTokenUpstreamDown(t *testing.T) {
	// 外部服务不可达等同凭证无效，不向上抛传输错误
	r, _ := newTestResolver(t, "http://127.0.0.1:1", "")
	_, err := r.ResolveUserToken(context.Background(), "any")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveAPIKey(t *testing.T) {
	appstore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps/by_token/key-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"app_uuid": "app-3"}`))
	}))
	defer appstore.Close()

	r, _ := newTestResolver(t, appstore.URL, "")
	appUUID, err := r.ResolveAPIKey(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, "app-3", appUUID)
}

func TestResolveBearer(t *testing.T) {
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/me", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uid": 99}`))
	}))
	defer authSrv.Close()

	r, _ := newTestResolver(t, "", authSrv.URL)
	uid, err := r.ResolveBearer(context.Background(), "access-1")
	require.NoError(t, err)
	assert.EqualValues(t, 99, uid)
}
