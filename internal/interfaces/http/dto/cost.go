// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"dtf-editor-api/internal/domain/repository"
)

// ProviderCostSummaryResponse 供应商成本汇总响应
type ProviderCostSummaryResponse struct {
	Provider     string `json:"provider"`
	Calls        int64  `json:"calls"`
	Failures     int64  `json:"failures"`
	TotalDollars string `json:"total_dollars"`
}

// NewProviderCostSummaryResponse 从成本汇总构造响应
func NewProviderCostSummaryResponse(s *repository.ProviderCostSummary) *ProviderCostSummaryResponse {
	return &ProviderCostSummaryResponse{
		Provider:     string(s.Provider),
		Calls:        s.Calls,
		Failures:     s.Failures,
		TotalDollars: s.TotalDollars.StringFixed(4),
	}
}
