// Package provider 实现外部图像处理供应商客户端
package provider

import (
	"fmt"

	"go.opentelemetry.io/otel"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/service"
)

var tracer = otel.Tracer("provider")

// Registry 操作类型到供应商的封闭映射，构造期解析完成
type Registry struct {
	providers map[entity.OperationKind]service.Provider
}

// NewRegistry 创建供应商注册表
func NewRegistry(
	deepImage *DeepImageClient,
	clippingMagic *ClippingMagicClient,
	vectorizer *VectorizerClient,
	openAI *OpenAIClient,
) *Registry {
	return &Registry{
		providers: map[entity.OperationKind]service.Provider{
			entity.OperationUpscale:           deepImage,
			entity.OperationBackgroundRemoval: clippingMagic,
			entity.OperationVectorization:     vectorizer,
			entity.OperationGeneration:        openAI,
		},
	}
}

// Resolve 解析操作对应的供应商
func (r *Registry) Resolve(op entity.OperationKind) (service.Provider, error) {
	p, ok := r.providers[op]
	if !ok {
		return nil, fmt.Errorf("no provider registered for operation %q", op)
	}
	return p, nil
}
