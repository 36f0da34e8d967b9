// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
)

// CreditTransactionRepository 积分流水仓储实现
type CreditTransactionRepository struct {
	client *Client
}

// NewCreditTransactionRepository 创建积分流水仓储
func NewCreditTransactionRepository(client *Client) *CreditTransactionRepository {
	return &CreditTransactionRepository{client: client}
}

// Create 追加一条流水
func (r *CreditTransactionRepository) Create(ctx context.Context, tx *entity.CreditTransaction) error {
	ctx, span := tracer.Start(ctx, "postgres.CreditTransactionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(tx).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create credit transaction: %w", err)
	}
	return nil
}

// ListByAccount 获取账户流水列表
func (r *CreditTransactionRepository) ListByAccount(ctx context.Context, accountID string, pagination repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditTransactionRepository.ListByAccount")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.CreditTransaction{}).Where("account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count credit transactions: %w", err)
	}

	var txs []*entity.CreditTransaction
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&txs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}

	return repository.NewPagedResult(txs, total, pagination), nil
}

// SumByType 按类型汇总账户流水金额
func (r *CreditTransactionRepository) SumByType(ctx context.Context, accountID string) (map[entity.TransactionType]int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditTransactionRepository.SumByType")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var rows []struct {
		Type  entity.TransactionType
		Total int64
	}
	if err := db.Model(&entity.CreditTransaction{}).
		Where("account_id = ?", accountID).
		Select("type, COALESCE(SUM(amount),0) AS total").
		Group("type").
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to sum credit transactions: %w", err)
	}

	sums := make(map[entity.TransactionType]int64, len(rows))
	for _, row := range rows {
		sums[row.Type] = row.Total
	}
	return sums, nil
}
