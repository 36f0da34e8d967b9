package service

import (
	"context"
	"encoding/json"
	"fmt"

	"dtf-editor-api/internal/domain/entity"
)

// ProviderRequest 一次图像处理调用的输入
type ProviderRequest struct {
	AccountID string
	JobID     string
	Operation entity.OperationKind

	// ImageURL 与 ImageData 二选一
	ImageURL  string
	ImageData []byte

	// Prompt 仅用于 AI 生成
	Prompt string

	// TargetWidth/TargetHeight 期望输出像素尺寸（放大）
	TargetWidth  int
	TargetHeight int

	// Options 供应商特定参数
	Options map[string]string
}

// ProviderResult 供应商返回的处理结果
type ProviderResult struct {
	URL      string          `json:"url"`
	Width    int             `json:"width,omitempty"`
	Height   int             `json:"height,omitempty"`
	Format   string          `json:"format,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Invocation 一次供应商调用的结果载体。
// Result 与 Deferred 二选一：Result 为同步完成的结果，
// Deferred 为需要轮询的远端任务句柄。
type Invocation struct {
	Result   *ProviderResult
	Deferred *DeferredHandle
}

// DeferredHandle 远端异步任务句柄
type DeferredHandle struct {
	RemoteID string
	Progress int
}

// ProviderError 供应商调用错误，Retryable 区分基础设施故障与输入问题
type ProviderError struct {
	Provider  entity.ProviderName
	Retryable bool
	Message   string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider 外部图像处理供应商
type Provider interface {
	// Name 供应商名称
	Name() entity.ProviderName

	// Invoke 发起处理调用，返回同步结果或远端任务句柄
	Invoke(ctx context.Context, req *ProviderRequest) (*Invocation, error)

	// Poll 查询远端任务状态，完成时返回结果，否则返回更新后的句柄
	Poll(ctx context.Context, handle *DeferredHandle) (*Invocation, error)
}

// ProviderRegistry 操作类型到供应商的封闭映射，构造期解析
type ProviderRegistry interface {
	// Resolve 解析操作对应的供应商
	Resolve(op entity.OperationKind) (Provider, error)
}
