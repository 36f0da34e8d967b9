package service

import (
	"context"

	"dtf-editor-api/internal/domain/entity"
)

// CostUsageInput 表示一个处理请求终态的成本与可观测数据。
// 说明：该结构位于 domain/service，作为跨层的稳定契约（port），避免基础设施层依赖应用层实现。
type CostUsageInput struct {
	AccountID string
	JobID     string

	Provider  entity.ProviderName
	Operation entity.OperationKind
	Outcome   entity.CostOutcome

	// Attempted 是否实际调用了供应商；未调用时真实成本为 0
	Attempted bool

	CreditsCharged int
	DurationMs     int
	ErrorMessage   string
}

// CostRecorder 负责记录操作成本（流水落库 + 指标上报）。
// 约定：该接口的实现应尽量“best-effort”，不应阻塞主业务流程。
type CostRecorder interface {
	Record(ctx context.Context, in CostUsageInput) error
}
