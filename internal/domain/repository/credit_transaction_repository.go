// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"dtf-editor-api/internal/domain/entity"
)

// CreditTransactionRepository 积分流水仓储接口
type CreditTransactionRepository interface {
	// Create 追加一条流水
	Create(ctx context.Context, tx *entity.CreditTransaction) error

	// ListByAccount 获取账户流水列表
	ListByAccount(ctx context.Context, accountID string, pagination Pagination) (*PagedResult[*entity.CreditTransaction], error)

	// SumByType 按类型汇总账户流水金额，用于对账
	SumByType(ctx context.Context, accountID string) (map[entity.TransactionType]int64, error)
}
