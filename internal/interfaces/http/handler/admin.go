// Package handler 提供 HTTP 请求处理器
package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"dtf-editor-api/internal/application/costtrack"
	"dtf-editor-api/internal/application/ledger"
	"dtf-editor-api/internal/interfaces/http/dto"
)

// AdminHandler 管理端处理器：成本汇总与积分调整
type AdminHandler struct {
	recorder *costtrack.Recorder
	ledger   *ledger.Service
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(recorder *costtrack.Recorder, ledgerSvc *ledger.Service) *AdminHandler {
	return &AdminHandler{recorder: recorder, ledger: ledgerSvc}
}

// CostSummary 按供应商汇总真实成本
// GET /v1/admin/costs/summary?days=30
func (h *AdminHandler) CostSummary(c *gin.Context) {
	var query struct {
		Days int `form:"days,default=30" binding:"omitempty,min=1,max=365"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -query.Days)
	summaries, err := h.recorder.MarginSummary(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]*dto.ProviderCostSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, dto.NewProviderCostSummaryResponse(s))
	}
	dto.Success(c, items)
}

// AdjustCredits 管理员为指定账户调整积分
// POST /v1/admin/credits/adjust
func (h *AdminHandler) AdjustCredits(c *gin.Context) {
	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	tx, err := h.ledger.Adjust(c.Request.Context(), req.AccountID, req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.NewTransactionResponse(tx))
}
