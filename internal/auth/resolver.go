package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/timeline-sync/config"
	"github.com/d60-Lab/timeline-sync/internal/repository"
	"github.com/d60-Lab/timeline-sync/pkg/logger"
)

// ErrUnauthenticated 凭证无法解析（含外部服务非 200 / 超时），不重试
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity 用户凭证解析结果
type Identity struct {
	UserID     int64
	AppUUID    string
	DataSource string
}

// Resolver 凭证解析：每次请求重新解析，不做缓存
type Resolver interface {
	// ResolveUserToken 先查本地沙箱凭证表，未命中则委托 appstore locker 服务
	ResolveUserToken(ctx context.Context, token string) (*Identity, error)
	// ResolveAPIKey 共享 pin 写路径，仅解析出 app_uuid
	ResolveAPIKey(ctx context.Context, key string) (string, error)
	// ResolveBearer 经账号服务 /me 解析出 uid（sandbox 凭证下发端点用）
	ResolveBearer(ctx context.Context, accessToken string) (int64, error)
}

type resolver struct {
	tokens      repository.SandboxTokenRepository
	client      *http.Client
	authURL     string
	appstoreURL string
}

func NewResolver(tokens repository.SandboxTokenRepository, cfg config.AuthConfig) Resolver {
	return &resolver{
		tokens:      tokens,
		client:      &http.Client{Timeout: cfg.Timeout},
		authURL:     cfg.AuthURL,
		appstoreURL: cfg.AppstoreURL,
	}
}

func (r *resolver) ResolveUserToken(ctx context.Context, token string) (*Identity, error) {
	sandbox, err := r.tokens.GetByToken(ctx, token)
	if err == nil {
		return &Identity{
			UserID:     sandbox.UserID,
			AppUUID:    sandbox.AppUUID,
			DataSource: fmt.Sprintf("sandbox-uuid:%s", sandbox.AppUUID),
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var body struct {
		UserID  int64  `json:"user_id"`
		AppUUID string `json:"app_uuid"`
	}
	if err := r.getJSON(ctx, r.appstoreURL+"/api/v1/locker/by_token/"+url.PathEscape(token), "", &body); err != nil {
		return nil, err
	}
	return &Identity{
		UserID:     body.UserID,
		AppUUID:    body.AppUUID,
		DataSource: fmt.Sprintf("uuid:%s", body.AppUUID),
	}, nil
}

func (r *resolver) ResolveAPIKey(ctx context.Context, key string) (string, error) {
	var body struct {
		AppUUID string `json:"app_uuid"`
	}
	if err := r.getJSON(ctx, r.appstoreURL+"/api/v1/apps/by_token/"+url.PathEscape(key), "", &body); err != nil {
		return "", err
	}
	return body.AppUUID, nil
}

func (r *resolver) ResolveBearer(ctx context.Context, accessToken string) (int64, error) {
	var body struct {
		UID int64 `json:"uid"`
	}
	if err := r.getJSON(ctx, r.authURL+"/api/v1/me", accessToken, &body); err != nil {
		return 0, err
	}
	return body.UID, nil
}

// getJSON 外部查证统一入口：超时与非 200 一律视作解析失败
func (r *resolver) getJSON(ctx context.Context, rawURL, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		logger.Debug("credential lookup failed", zap.String("url", rawURL), zap.Error(err))
		return ErrUnauthenticated
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ErrUnauthenticated
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrUnauthenticated
	}
	return nil
}
