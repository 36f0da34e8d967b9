// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"dtf-editor-api/internal/application/ledger"
	"dtf-editor-api/internal/domain/entity"
)

// BalanceResponse 积分余额响应
type BalanceResponse struct {
	AccountID        string `json:"account_id"`
	CreditsRemaining int    `json:"credits_remaining"`
	CreditsUsed      int    `json:"credits_used"`
}

// PurchaseRequest 积分购买请求
type PurchaseRequest struct {
	Amount      int    `json:"amount" binding:"required,min=1,max=100000"`
	Description string `json:"description,omitempty" binding:"omitempty,max=255"`
}

// AdjustRequest 管理员积分调整请求
type AdjustRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Amount    int    `json:"amount" binding:"required,min=1,max=100000"`
	Reason    string `json:"reason" binding:"required,max=255"`
}

// TransactionResponse 积分流水响应
type TransactionResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Amount       int       `json:"amount"`
	BalanceAfter int       `json:"balance_after"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewTransactionResponse 从流水实体构造响应
func NewTransactionResponse(t *entity.CreditTransaction) *TransactionResponse {
	return &TransactionResponse{
		ID:           t.ID,
		Type:         string(t.Type),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
	}
}

// VerifyBalanceResponse 账本核对响应
type VerifyBalanceResponse struct {
	AccountID        string `json:"account_id"`
	CreditsRemaining int    `json:"credits_remaining"`
	ExpectedBalance  int64  `json:"expected_balance"`
	Consistent       bool   `json:"consistent"`
}

// NewVerifyBalanceResponse 从核对报告构造响应
func NewVerifyBalanceResponse(r *ledger.BalanceReport) *VerifyBalanceResponse {
	return &VerifyBalanceResponse{
		AccountID:        r.AccountID,
		CreditsRemaining: r.CreditsRemaining,
		ExpectedBalance:  r.ExpectedBalance,
		Consistent:       r.Consistent,
	}
}
