// Package entity 定义领域实体
package entity

import "time"

// TransactionType 积分流水类型
type TransactionType string

const (
	TransactionUsage      TransactionType = "usage"
	TransactionRefund     TransactionType = "refund"
	TransactionPurchase   TransactionType = "purchase"
	TransactionAdjustment TransactionType = "adjustment"
)

// CreditTransaction 积分流水（只追加）
type CreditTransaction struct {
	ID           string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID    string          `json:"account_id" gorm:"type:uuid;index;not null"`
	Type         TransactionType `json:"type" gorm:"type:varchar(16);not null"`
	Amount       int             `json:"amount" gorm:"not null"`
	BalanceAfter int             `json:"balance_after" gorm:"not null"`
	Description  string          `json:"description" gorm:"type:varchar(255)"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
