// Package provider 实现外部图像处理供应商客户端
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/service"
)

// OpenAIClient OpenAI 图像生成客户端
type OpenAIClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	model      string
}

// NewOpenAIClient 创建 OpenAI 客户端
func NewOpenAIClient(cfg config.ProviderConfig) *OpenAIClient {
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		model:      "dall-e-3",
	}
}

// Name 供应商名称
func (c *OpenAIClient) Name() entity.ProviderName {
	return entity.ProviderOpenAI
}

// Invoke 发起图像生成调用
func (c *OpenAIClient) Invoke(ctx context.Context, req *service.ProviderRequest) (*service.Invocation, error) {
	ctx, span := tracer.Start(ctx, "provider.OpenAI.Invoke",
		trace.WithAttributes(attribute.String("operation", string(req.Operation))))
	defer span.End()

	if req.Prompt == "" {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "prompt is required for generation"}
	}

	size := "1024x1024"
	if req.TargetWidth > 0 && req.TargetHeight > 0 {
		size = fmt.Sprintf("%dx%d", req.TargetWidth, req.TargetHeight)
	}

	body := map[string]interface{}{
		"model":  c.model,
		"prompt": req.Prompt,
		"n":      1,
		"size":   size,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

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

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &service.ProviderError{Provider: c.Name(), Retryable: true,
			Message: fmt.Sprintf("server error: %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &service.ProviderError{Provider: c.Name(),
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error.message").String())}
	}

	url := gjson.GetBytes(raw, "data.0.url").String()
	if url == "" {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "response missing image url"}
	}

	meta, _ := json.Marshal(map[string]string{
		"revised_prompt": gjson.GetBytes(raw, "data.0.revised_prompt").String(),
		"model":          c.model,
	})
	return &service.Invocation{
		Result: &service.ProviderResult{
			URL:      url,
			Format:   "png",
			Metadata: meta,
		},
	}, nil
}

// Poll OpenAI 图像生成为同步接口，不支持轮询
func (c *OpenAIClient) Poll(ctx context.Context, handle *service.DeferredHandle) (*service.Invocation, error) {
	return nil, &service.ProviderError{Provider: c.Name(), Message: "polling not supported"}
}
