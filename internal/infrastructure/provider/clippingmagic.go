// Package provider 实现外部图像处理供应商客户端
package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/service"
)

// ClippingMagicClient ClippingMagic 去背景客户端
type ClippingMagicClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewClippingMagicClient 创建 ClippingMagic 客户端
func NewClippingMagicClient(cfg config.ProviderConfig) *ClippingMagicClient {
	return &ClippingMagicClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name 供应商名称
func (c *ClippingMagicClient) Name() entity.ProviderName {
	return entity.ProviderClippingMagic
}

// Invoke 发起去背景调用
// 上传图片后同步返回抠图结果（透明 PNG）
func (c *ClippingMagicClient) Invoke(ctx context.Context, req *service.ProviderRequest) (*service.Invocation, error) {
	ctx, span := tracer.Start(ctx, "provider.ClippingMagic.Invoke",
		trace.WithAttributes(attribute.String("operation", string(req.Operation))))
	defer span.End()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if len(req.ImageData) > 0 {
		part, err := writer.CreateFormFile("image", "upload.png")
		if err != nil {
			return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to build multipart body", Err: err}
		}
		if _, err := part.Write(req.ImageData); err != nil {
			return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to write image data", Err: err}
		}
	} else {
		if err := writer.WriteField("image.url", req.ImageURL); err != nil {
			return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to write image url", Err: err}
		}
	}
	_ = writer.WriteField("format", "png")
	_ = writer.WriteField("background.color", "transparent")
	if err := writer.Close(); err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to finalize multipart body", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/images", &buf)
	if err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)

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
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error.message").String())}
	}

	imageID := gjson.GetBytes(raw, "image.id").String()
	resultURL := gjson.GetBytes(raw, "image.resultUrl").String()
	if resultURL == "" && imageID != "" {
		resultURL = fmt.Sprintf("%s/images/%s/result", c.cfg.BaseURL, imageID)
	}
	if resultURL == "" {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "response missing result url"}
	}

	return &service.Invocation{
		Result: &service.ProviderResult{
			URL:    resultURL,
			Format: "png",
		},
	}, nil
}

// Poll ClippingMagic 为同步接口，不支持轮询
func (c *ClippingMagicClient) Poll(ctx context.Context, handle *service.DeferredHandle) (*service.Invocation, error) {
	return nil, &service.ProviderError{Provider: c.Name(), Message: "polling not supported"}
}
