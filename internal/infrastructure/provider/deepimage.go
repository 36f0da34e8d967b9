// Package provider 实现外部图像处理供应商客户端
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/service"
)

// DeepImageClient Deep-Image.ai 放大客户端
type DeepImageClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewDeepImageClient 创建 Deep-Image 客户端
func NewDeepImageClient(cfg config.ProviderConfig) *DeepImageClient {
	return &DeepImageClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name 供应商名称
func (c *DeepImageClient) Name() entity.ProviderName {
	return entity.ProviderDeepImage
}

// Invoke 发起放大调用
// Deep-Image 对小图同步返回结果，大图返回任务哈希，需要轮询
func (c *DeepImageClient) Invoke(ctx context.Context, req *service.ProviderRequest) (*service.Invocation, error) {
	ctx, span := tracer.Start(ctx, "provider.DeepImage.Invoke",
		trace.WithAttributes(attribute.String("operation", string(req.Operation))))
	defer span.End()

	body := map[string]interface{}{
		"url":          req.ImageURL,
		"enhancements": []string{"denoise", "deblur", "light"},
	}

	// 按倍率放大时使用百分比语法，否则使用绝对像素尺寸
	if scale, ok := req.Options["scale"]; ok {
		if n, err := strconv.Atoi(scale); err == nil && n > 1 {
			pct := fmt.Sprintf("%d%%", n*100)
			body["width"] = pct
			body["height"] = pct
		}
	} else if req.TargetWidth > 0 && req.TargetHeight > 0 {
		body["width"] = req.TargetWidth
		body["height"] = req.TargetHeight
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/process_result", bytes.NewReader(payload))
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, &service.ProviderError{Provider: c.Name(), Retryable: true, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Retryable: true, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= 500 {
		return nil, &service.ProviderError{Provider: c.Name(), Retryable: true,
			Message: fmt.Sprintf("server error: %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &service.ProviderError{Provider: c.Name(),
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error").String())}
	}

	return c.parseResult(raw)
}

// Poll 查询远端任务状态
func (c *DeepImageClient) Poll(ctx context.Context, handle *service.DeferredHandle) (*service.Invocation, error) {
	ctx, span := tracer.Start(ctx, "provider.DeepImage.Poll",
		trace.WithAttributes(attribute.String("remote_id", handle.RemoteID)))
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/result/"+handle.RemoteID, nil)
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to build poll request", Err: err}
	}
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, &service.ProviderError{Provider: c.Name(), Retryable: true, Message: "poll failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Retryable: true, Message: "failed to read poll response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &service.ProviderError{Provider: c.Name(), Retryable: resp.StatusCode >= 500,
			Message: fmt.Sprintf("poll returned status %d", resp.StatusCode)}
	}

	return c.parseResult(raw)
}

// PollInterval 轮询间隔
func (c *DeepImageClient) PollInterval() time.Duration {
	return c.cfg.PollInterval
}

// MaxPolls 最大轮询次数
func (c *DeepImageClient) MaxPolls() int {
	return c.cfg.MaxPolls
}

// parseResult 解析处理结果
// status 为 complete 时携带 result_url；received/in_progress 时携带任务哈希
func (c *DeepImageClient) parseResult(raw []byte) (*service.Invocation, error) {
	status := gjson.GetBytes(raw, "status").String()

	switch status {
	case "complete":
		url := gjson.GetBytes(raw, "result_url").String()
		if url == "" {
			return nil, &service.ProviderError{Provider: c.Name(), Message: "complete response missing result_url"}
		}
		return &service.Invocation{
			Result: &service.ProviderResult{
				URL:    url,
				Width:  int(gjson.GetBytes(raw, "width").Int()),
				Height: int(gjson.GetBytes(raw, "height").Int()),
				Format: "png",
			},
		}, nil

	case "received", "in_progress", "processing":
		hash := gjson.GetBytes(raw, "job").String()
		if hash == "" {
			return nil, &service.ProviderError{Provider: c.Name(), Message: "deferred response missing job hash"}
		}
		progress := int(gjson.GetBytes(raw, "progress").Int())
		return &service.Invocation{
			Deferred: &service.DeferredHandle{RemoteID: hash, Progress: progress},
		}, nil

	case "failed", "error":
		return nil, &service.ProviderError{Provider: c.Name(),
			Message: fmt.Sprintf("processing failed: %s", gjson.GetBytes(raw, "message").String())}

	default:
		return nil, &service.ProviderError{Provider: c.Name(),
			Message: fmt.Sprintf("unknown status %q", status)}
	}
}
