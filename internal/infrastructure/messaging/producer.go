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

// PublishImageJob 发布图像处理任务
func (p *Producer) PublishImageJob(ctx context.Context, job *ImageJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, MsgTypeImageProcess, job.AccountID, job.JobID, job)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("operation", job.Operation)
	if job.RequestID != "" {
		msg.SetMetadata("request_id", job.RequestID)
	}

	return p.Publish(ctx, StreamImageJobs, msg)
}

// PublishAuditLog 发布审计日志
func (p *Producer) PublishAuditLog(ctx context.Context, log *AuditLogMessage) (string, error) {
	msg, err := NewMessage(log.RequestID, "audit", log.AccountID, "", log)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamAuditLog, msg)
}

// ImageJobMessage 图像处理任务消息
type ImageJobMessage struct {
	JobID     string                 `json:"job_id"`
	AccountID string                 `json:"account_id"`
	Operation string                 `json:"operation"`
	Provider  string                 `json:"provider"`
	RequestID string                 `json:"request_id,omitempty"`
	Params    map[string]interface{} `json:"params"`
}

// AuditLogMessage 审计日志消息
type AuditLogMessage struct {
	AccountID    string                 `json:"account_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	RequestID    string                 `json:"request_id"`
	TraceID      string                 `json:"trace_id,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	Changes      map[string]interface{} `json:"changes,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
