// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishVersionEvent 发布版本生命周期事件
// 提交、恢复、清理成功后发布，供下游归档与通知消费。
func (p *Producer) PublishVersionEvent(ctx context.Context, event *VersionEventMessage) (string, error) {
	msg, err := NewMessage(event.VersionID, event.EventType, event.SpaceID, event.NotebookID, event)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("version_number", fmt.Sprintf("%d", event.VersionNumber))
	return p.Publish(ctx, StreamVersionEvents, msg)
}

// PublishRetentionSweep 发布保留清理任务
// 提交成功后版本数超限时入队，由 retention-worker 异步执行清理。
func (p *Producer) PublishRetentionSweep(ctx context.Context, sweep *RetentionSweepMessage) (string, error) {
	msg, err := NewMessage(sweep.NotebookID, "retention_sweep", sweep.SpaceID, sweep.NotebookID, sweep)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("keep_count", fmt.Sprintf("%d", sweep.KeepCount))
	return p.Publish(ctx, StreamRetentionSweep, msg)
}

// PublishAuditLog 发布审计日志
func (p *Producer) PublishAuditLog(ctx context.Context, log *AuditLogMessage) (string, error) {
	msg, err := NewMessage(log.RequestID, "audit", log.SpaceID, "", log)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamAuditLog, msg)
}

// VersionEventMessage 版本生命周期事件消息
type VersionEventMessage struct {
	EventType     string `json:"event_type"`
	SpaceID       string `json:"space_id"`
	NotebookID    string `json:"notebook_id"`
	VersionID     string `json:"version_id"`
	VersionNumber int    `json:"version_number"`
	BranchName    string `json:"branch_name,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
}

// 版本事件类型
const (
	VersionEventCommitted = "version_committed"
	VersionEventRestored  = "version_restored"
	VersionEventPruned    = "versions_pruned"
)

// RetentionSweepMessage 保留清理任务消息
type RetentionSweepMessage struct {
	SpaceID    string `json:"space_id"`
	NotebookID string `json:"notebook_id"`
	KeepCount  int    `json:"keep_count"`
}

// AuditLogMessage 审计日志消息
type AuditLogMessage struct {
	SpaceID      string                 `json:"space_id,omitempty"`
	UserID       string                 `json:"user_id,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	RequestID    string                 `json:"request_id"`
	TraceID      string                 `json:"trace_id,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Changes      map[string]interface{} `json:"changes,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
