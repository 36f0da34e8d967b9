// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"dtf-editor-api/internal/domain/entity"
)

// AccountRepository 账户仓储接口
type AccountRepository interface {
	// Create 创建账户
	Create(ctx context.Context, account *entity.Account) error

	// GetByID 根据 ID 获取账户
	GetByID(ctx context.Context, id string) (*entity.Account, error)

	// GetByEmail 根据邮箱获取账户
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)

	// Update 更新账户
	Update(ctx context.Context, account *entity.Account) error

	// UpdateStatus 更新账户状态
	UpdateStatus(ctx context.Context, id string, status entity.AccountStatus) error

	// List 获取账户列表
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Account], error)

	// ReserveCredits 原子条件扣减积分
	// 单条 UPDATE ... WHERE credits_remaining >= amount；
	// 余额不足时 ok 为 false 且不产生任何变更
	ReserveCredits(ctx context.Context, id string, amount int) (balanceAfter int, ok bool, err error)

	// RefundCredits 原子增加可用积分，不回退 credits_used
	RefundCredits(ctx context.Context, id string, amount int) (balanceAfter int, err error)

	// GrantCredits 原子增加可用积分与累计购买量
	GrantCredits(ctx context.Context, id string, amount int) (balanceAfter int, err error)
}
