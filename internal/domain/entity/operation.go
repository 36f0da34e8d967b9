// Package entity 定义领域实体
package entity

// OperationKind 图像处理操作类型
type OperationKind string

const (
	OperationUpscale           OperationKind = "upscale"
	OperationBackgroundRemoval OperationKind = "background_removal"
	OperationVectorization     OperationKind = "vectorization"
	OperationGeneration        OperationKind = "generation"
)

// IsValid 检查操作类型是否合法
func (k OperationKind) IsValid() bool {
	switch k {
	case OperationUpscale, OperationBackgroundRemoval, OperationVectorization, OperationGeneration:
		return true
	}
	return false
}

// ProviderName 外部供应商名称
type ProviderName string

const (
	ProviderDeepImage     ProviderName = "deep_image"
	ProviderClippingMagic ProviderName = "clipping_magic"
	ProviderVectorizer    ProviderName = "vectorizer"
	ProviderOpenAI        ProviderName = "openai"
)
