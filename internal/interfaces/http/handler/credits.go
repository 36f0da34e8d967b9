// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"dtf-editor-api/internal/application/ledger"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/interfaces/http/dto"
)

// CreditsHandler 积分账本处理器
type CreditsHandler struct {
	ledger *ledger.Service
}

// NewCreditsHandler 创建积分处理器
func NewCreditsHandler(ledgerSvc *ledger.Service) *CreditsHandler {
	return &CreditsHandler{ledger: ledgerSvc}
}

// Balance 查询积分余额
// GET /v1/credits/balance
func (h *CreditsHandler) Balance(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	account, err := h.ledger.Balance(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, &dto.BalanceResponse{
		AccountID:        account.ID,
		CreditsRemaining: account.CreditsRemaining,
		CreditsUsed:      account.CreditsUsed,
	})
}

// Purchase 购买积分（支付确认后的入账）
// POST /v1/credits/purchase
func (h *CreditsHandler) Purchase(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	description := req.Description
	if description == "" {
		description = "credit purchase"
	}
	tx, err := h.ledger.Grant(c.Request.Context(), accountID, req.Amount, description)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.NewTransactionResponse(tx))
}

// History 分页查询积分流水
// GET /v1/credits/transactions
func (h *CreditsHandler) History(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	pagination := repository.NewPagination(query.Page, query.PageSize)
	result, err := h.ledger.History(c.Request.Context(), accountID, pagination)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]*dto.TransactionResponse, 0, len(result.Items))
	for _, tx := range result.Items {
		items = append(items, dto.NewTransactionResponse(tx))
	}
	dto.SuccessWithPage(c, items, dto.NewPageMeta(pagination.Page, pagination.PageSize, int(result.Total)))
}

// Verify 核对账本一致性
// GET /v1/credits/verify
func (h *CreditsHandler) Verify(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	report, err := h.ledger.VerifyBalance(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.NewVerifyBalanceResponse(report))
}
