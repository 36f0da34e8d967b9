// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostOutcome 操作终态结果
type CostOutcome string

const (
	CostOutcomeSuccess CostOutcome = "success"
	CostOutcomeFailure CostOutcome = "failure"
)

// CostRecord 成本审计记录（只追加，用于毛利核算）
// 每个处理请求的终态恰好产生一条，包括余额不足被拒绝的请求
type CostRecord struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID      string          `json:"account_id" gorm:"type:uuid;index;not null"`
	JobID          string          `json:"job_id,omitempty" gorm:"type:uuid;index"`
	Provider       ProviderName    `json:"provider" gorm:"type:varchar(32);not null"`
	Operation      OperationKind   `json:"operation" gorm:"type:varchar(32);not null"`
	Outcome        CostOutcome     `json:"outcome" gorm:"type:varchar(16);not null"`
	CreditsCharged int             `json:"credits_charged" gorm:"not null;default:0"`
	CostDollars    decimal.Decimal `json:"cost_dollars" gorm:"type:numeric(10,4);not null"`
	DurationMs     int             `json:"duration_ms" gorm:"not null;default:0"`
	ErrorMessage   string          `json:"error_message,omitempty" gorm:"type:varchar(512)"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (CostRecord) TableName() string {
	return "cost_records"
}
