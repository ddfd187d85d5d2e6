package push

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-sync/config"
	"github.com/d60-Lab/timeline-sync/pkg/logger"
)

// Notification 一次移动推送请求（多用户多播）
type Notification struct {
	UserIDs []int64         `json:"user_ids"`
	PinGUID string          `json:"pin_guid"`
	Layout  json.RawMessage `json:"layout"`
}

// Notifier 推送投递边界。投递失败绝不影响触发它的 API 请求。
type Notifier interface {
	Enqueue(n Notification)
}

// NopNotifier 推送未启用时的空实现
type NopNotifier struct{}

func (NopNotifier) Enqueue(Notification) {}

// Dispatcher 本地异步推送执行器：满则丢弃，有损但不阻塞请求路径
type Dispatcher struct {
	url    string
	client *http.Client
	ch     chan Notification
}

func NewDispatcher(cfg config.PushConfig) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &Dispatcher{
		url:    cfg.URL,
		client: &http.Client{Timeout: 10 * time.Second},
		ch:     make(chan Notification, queueSize),
	}
}

func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case n := <-d.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
					d.deliver(ctx, n)
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		// 等待队列自然排空一小段时间
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(d.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (d *Dispatcher) Enqueue(n Notification) {
	select {
	case d.ch <- n:
	default:
		logger.Warn("push queue full, drop notification",
			zap.String("pin", n.PinGUID),
			zap.Int("users", len(n.UserIDs)),
		)
	}
}

// deliver 调用推送网关；网关在响应中报告失效设备，仅记录
func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Error("marshal notification", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url+"/v1/notify", bytes.NewReader(payload))
	if err != nil {
		logger.Error("build push request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		logger.Warn("push delivery failed", zap.String("pin", n.PinGUID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	var result struct {
		RejectedTokens []string `json:"rejected_tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && len(result.RejectedTokens) > 0 {
		// 网关侧已剔除失效 token，这里仅留观测痕迹
		logger.Info("push tokens pruned",
			zap.String("pin", n.PinGUID),
			zap.Int("rejected", len(result.RejectedTokens)),
		)
	}
	if resp.StatusCode >= 300 {
		logger.Warn("push gateway rejected",
			zap.String("pin", n.PinGUID),
			zap.Int("status", resp.StatusCode),
		)
	}
}
