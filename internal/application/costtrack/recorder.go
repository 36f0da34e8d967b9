// Package costtrack 提供供应商真实成本记录能力
package costtrack

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/domain/service"
	"dtf-editor-api/pkg/logger"
	"dtf-editor-api/pkg/metrics"
)

// unitCosts 各供应商单次调用的真实美元成本
var unitCosts = map[entity.ProviderName]decimal.Decimal{
	entity.ProviderDeepImage:     decimal.NewFromFloat(0.08),
	entity.ProviderClippingMagic: decimal.NewFromFloat(0.125),
	entity.ProviderVectorizer:    decimal.NewFromFloat(0.20),
	entity.ProviderOpenAI:        decimal.NewFromFloat(0.04),
}

// Recorder 成本记录器。
// 落库为 best-effort：记录失败只打日志，绝不反向影响主业务流程。
type Recorder struct {
	costRepo repository.CostRecordRepository
}

// NewRecorder 创建成本记录器
func NewRecorder(costRepo repository.CostRecordRepository) *Recorder {
	return &Recorder{costRepo: costRepo}
}

// Record 记录一个处理请求的终态成本。
// 未实际调用供应商（如余额不足被拒）时真实成本计 0。
func (r *Recorder) Record(ctx context.Context, in service.CostUsageInput) error {
	if r == nil || r.costRepo == nil {
		return nil
	}

	cost := decimal.Zero
	if in.Attempted {
		if unit, ok := unitCosts[in.Provider]; ok {
			cost = unit
		}
	}

	record := &entity.CostRecord{
		ID:             uuid.NewString(),
		AccountID:      in.AccountID,
		JobID:          in.JobID,
		Provider:       in.Provider,
		Operation:      in.Operation,
		Outcome:        in.Outcome,
		CreditsCharged: in.CreditsCharged,
		CostDollars:    cost,
		DurationMs:     in.DurationMs,
		ErrorMessage:   in.ErrorMessage,
	}
	if err := r.costRepo.Create(ctx, record); err != nil {
		logger.Error(ctx, "failed to append cost record", err,
			"account_id", in.AccountID,
			"provider", in.Provider,
			"operation", in.Operation,
		)
	}

	metrics.ProviderCallTotal.WithLabelValues(string(in.Provider), string(in.Operation), string(in.Outcome)).Inc()
	if in.Attempted {
		metrics.ProviderCallDuration.WithLabelValues(string(in.Provider), string(in.Operation)).Observe(float64(in.DurationMs) / 1000)
		costF, _ := cost.Float64()
		metrics.ProviderCostDollars.WithLabelValues(string(in.Provider), string(in.Operation)).Add(costF)
	}
	return nil
}

// MarginSummary 按供应商汇总时间范围内的真实成本（管理端报表）
func (r *Recorder) MarginSummary(ctx context.Context, startInclusive, endExclusive time.Time) ([]*repository.ProviderCostSummary, error) {
	return r.costRepo.SummarizeByProvider(ctx, startInclusive, endExclusive)
}

// ListByAccount 获取账户成本记录（管理端）
func (r *Recorder) ListByAccount(ctx context.Context, accountID string, pagination repository.Pagination) (*repository.PagedResult[*entity.CostRecord], error) {
	return r.costRepo.ListByAccount(ctx, accountID, pagination)
}

// UnitCost 查询供应商单次调用成本
func UnitCost(p entity.ProviderName) decimal.Decimal {
	if unit, ok := unitCosts[p]; ok {
		return unit
	}
	return decimal.Zero
}
