// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
)

// CostRecordRepository 供应商成本记录仓储实现
type CostRecordRepository struct {
	client *Client
}

// NewCostRecordRepository 创建成本记录仓储
func NewCostRecordRepository(client *Client) *CostRecordRepository {
	return &CostRecordRepository{client: client}
}

// Create 追加一条成本记录
func (r *CostRecordRepository) Create(ctx context.Context, record *entity.CostRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.CostRecordRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create cost record: %w", err)
	}
	return nil
}

// ListByAccount 获取账户成本记录列表
func (r *CostRecordRepository) ListByAccount(ctx context.Context, accountID string, pagination repository.Pagination) (*repository.PagedResult[*entity.CostRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.CostRecordRepository.ListByAccount")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.CostRecord{}).Where("account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count cost records: %w", err)
	}

	var records []*entity.CostRecord
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list cost records: %w", err)
	}

	return repository.NewPagedResult(records, total, pagination), nil
}

// SummarizeByProvider 按供应商汇总时间范围内的成本
func (r *CostRecordRepository) SummarizeByProvider(ctx context.Context, startInclusive, endExclusive time.Time) ([]*repository.ProviderCostSummary, error) {
	ctx, span := tracer.Start(ctx, "postgres.CostRecordRepository.SummarizeByProvider")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var rows []struct {
		Provider     entity.ProviderName
		Calls        int64
		Failures     int64
		TotalDollars decimal.Decimal
	}
	if err := db.Model(&entity.CostRecord{}).
		Where("created_at >= ? AND created_at < ?", startInclusive, endExclusive).
		Select("provider, COUNT(*) AS calls, COUNT(*) FILTER (WHERE outcome = 'failure') AS failures, COALESCE(SUM(cost_dollars),0) AS total_dollars").
		Group("provider").
		Order("provider").
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to summarize cost records: %w", err)
	}

	summaries := make([]*repository.ProviderCostSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, &repository.ProviderCostSummary{
			Provider:     row.Provider,
			Calls:        row.Calls,
			Failures:     row.Failures,
			TotalDollars: row.TotalDollars,
		})
	}
	return summaries, nil
}
