// Package report 把未预期的处理器错误交给运维通知通道，调用方以 fire-and-forget 方式使用。
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Incident 是一次待上报的异常。
type Incident struct {
	Err       error
	TenantID  int
	URL       string
	RequestID string
	Time      time.Time
	// Source 区分服务端异常与客户端上报的异常。
	Source string
}

// Reporter 接收异常并安排通知。
type Reporter interface {
	Report(ctx context.Context, inc Incident) error
}

const (
	SourceServer = "server"
	SourceClient = "client"
)

type incidentRecord struct {
	Message   string    `json:"message"`
	TenantID  int       `json:"tenant_id"`
	URL       string    `json:"url"`
	RequestID string    `json:"request_id,omitempty"`
	Source    string    `json:"source"`
	Time      time.Time `json:"time"`
}

func (inc Incident) record() incidentRecord {
	msg := "<nil>"
	if inc.Err != nil {
		msg = inc.Err.Error()
	}
	ts := inc.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	source := inc.Source
	if source == "" {
		source = SourceServer
	}
	return incidentRecord{
		Message:   msg,
		TenantID:  inc.TenantID,
		URL:       inc.URL,
		RequestID: inc.RequestID,
		Source:    source,
		Time:      ts,
	}
}

// LogReporter 以 error 级别写日志。
type LogReporter struct {
	Logger *logrus.Logger
}

func (r LogReporter) Report(_ context.Context, inc Incident) error {
	logger := r.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	rec := inc.record()
	logger.WithFields(logrus.Fields{
		"action":     "exception",
		"tenant":     rec.TenantID,
		"url":        rec.URL,
		"request_id": rec.RequestID,
		"source":     rec.Source,
	}).WithError(inc.Err).Error("unexpected_error")
	return nil
}

// Pusher 是 RedisQueue 依赖的最小 Redis 能力，*redis.Client 满足该接口。
type Pusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisQueue 把异常以 JSON 形式推入 Redis 列表，由通知进程异步消费。
type RedisQueue struct {
	Client Pusher
	Key    string
}

// NewRedisQueue 基于连接参数创建客户端。
func NewRedisQueue(addr, password string, db int, key string) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisQueue{Client: client, Key: key}
}

func (q *RedisQueue) Report(ctx context.Context, inc Incident) error {
	payload, err := json.Marshal(inc.record())
	if err != nil {
		return fmt.Errorf("encode incident: %w", err)
	}
	if err := q.Client.LPush(ctx, q.Key, payload).Err(); err != nil {
		return fmt.Errorf("push incident to %s: %w", q.Key, err)
	}
	return nil
}

// Multi 依次调用全部 Reporter，汇总错误但不中断。
type Multi []Reporter

func (m Multi) Report(ctx context.Context, inc Incident) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, inc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
