// Package provider 实现外部图像处理供应商客户端
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
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

// VectorizerClient Vectorizer.ai 矢量化客户端
type VectorizerClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	mode       string
}

// NewVectorizerClient 创建 Vectorizer 客户端
func NewVectorizerClient(cfg config.ProviderConfig) *VectorizerClient {
	return &VectorizerClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		mode:       "production",
	}
}

// Name 供应商名称
func (c *VectorizerClient) Name() entity.ProviderName {
	return entity.ProviderVectorizer
}

// Invoke 发起矢量化调用，同步返回 SVG
func (c *VectorizerClient) Invoke(ctx context.Context, req *service.ProviderRequest) (*service.Invocation, error) {
	ctx, span := tracer.Start(ctx, "provider.Vectorizer.Invoke",
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
	_ = writer.WriteField("mode", c.mode)
	_ = writer.WriteField("output.file_format", "svg")
	if err := writer.Close(); err != nil {
		return nil, &service.ProviderError{Provider: c.Name(), Message: "failed to finalize multipart body", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/vectorize", &buf)
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
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "message").String())}
	}

	// 成功时响应体即 SVG 内容，以 data URL 形式返回
	meta, _ := json.Marshal(map[string]interface{}{
		"credits_charged": resp.Header.Get("X-Credits-Charged"),
		"receipt":         resp.Header.Get("X-Receipt"),
	})
	return &service.Invocation{
		Result: &service.ProviderResult{
			URL:      "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(raw),
			Format:   "svg",
			Metadata: meta,
		},
	}, nil
}

// Poll Vectorizer 为同步接口，不支持轮询
func (c *VectorizerClient) Poll(ctx context.Context, handle *service.DeferredHandle) (*service.Invocation, error) {
	return nil, &service.ProviderError{Provider: c.Name(), Message: "polling not supported"}
}
