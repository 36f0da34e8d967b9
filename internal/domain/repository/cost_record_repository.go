// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"dtf-editor-api/internal/domain/entity"
)

// CostRecordRepository 供应商成本记录仓储接口
type CostRecordRepository interface {
	// Create 追加一条成本记录
	Create(ctx context.Context, record *entity.CostRecord) error

	// ListByAccount 获取账户成本记录列表
	ListByAccount(ctx context.Context, accountID string, pagination Pagination) (*PagedResult[*entity.CostRecord], error)

	// SummarizeByProvider 按供应商汇总时间范围内的成本
	SummarizeByProvider(ctx context.Context, startInclusive, endExclusive time.Time) ([]*ProviderCostSummary, error)
}

// ProviderCostSummary 按供应商汇总的成本统计
type ProviderCostSummary struct {
	Provider    entity.ProviderName `json:"provider"`
	Calls       int64               `json:"calls"`
	Failures    int64               `json:"failures"`
	TotalDollars decimal.Decimal    `json:"total_dollars"`
}
