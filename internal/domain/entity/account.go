// Package entity 定义领域实体
package entity

import (
	"time"
)

// AccountStatus 账户状态
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusDeleted   AccountStatus = "deleted"
)

// AccountRole 账户角色
type AccountRole string

const (
	AccountRoleUser  AccountRole = "user"
	AccountRoleAdmin AccountRole = "admin"
)

// Account 账户实体，持有积分余额
type Account struct {
	ID                    string        `json:"id"`
	Email                 string        `json:"email"`
	Role                  AccountRole   `json:"role"`
	CreditsRemaining      int           `json:"credits_remaining"`
	CreditsUsed           int           `json:"credits_used"`
	TotalCreditsPurchased int           `json:"total_credits_purchased"`
	Status                AccountStatus `json:"status"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// NewAccount 创建新账户
func NewAccount(email string) *Account {
	now := time.Now()
	return &Account{
		Email:     email,
		Role:      AccountRoleUser,
		Status:    AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive 检查账户是否活跃
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsPrivileged 特权账户不计费
func (a *Account) IsPrivileged() bool {
	return a.Role == AccountRoleAdmin
}
