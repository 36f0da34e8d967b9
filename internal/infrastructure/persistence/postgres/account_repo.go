// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
)

// AccountRepository 账户仓储实现
type AccountRepository struct {
	client *Client
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(client *Client) *AccountRepository {
	return &AccountRepository{client: client}
}

// Create 创建账户
func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(account).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取账户
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var account entity.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetByEmail 根据邮箱获取账户
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.GetByEmail")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var account entity.Account
	if err := db.First(&account, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &account, nil
}

// Update 更新账户
func (r *AccountRepository) Update(ctx context.Context, account *entity.Account) error {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(account).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// UpdateStatus 更新账户状态
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status entity.AccountStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Account{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return nil
}

// List 获取账户列表
func (r *AccountRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Account], error) {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Account{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	var accounts []*entity.Account
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&accounts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	return repository.NewPagedResult(accounts, total, pagination), nil
}

// ReserveCredits 原子条件扣减积分
// 余额不足时条件不满足，零行受影响，账户不发生任何变更
func (r *AccountRepository) ReserveCredits(ctx context.Context, id string, amount int) (int, bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.ReserveCredits")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Account{}).
		Where("id = ? AND credits_remaining >= ?", id, amount).
		Updates(map[string]interface{}{
			"credits_remaining": gorm.Expr("credits_remaining - ?", amount),
			"credits_used":      gorm.Expr("credits_used + ?", amount),
		})
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, false, fmt.Errorf("failed to reserve credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}

	var balance int
	if err := db.Model(&entity.Account{}).Where("id = ?", id).
		Select("credits_remaining").Scan(&balance).Error; err != nil {
		span.RecordError(err)
		return 0, true, fmt.Errorf("failed to read balance after reserve: %w", err)
	}
	return balance, true, nil
}

// RefundCredits 原子增加可用积分，不回退 credits_used
func (r *AccountRepository) RefundCredits(ctx context.Context, id string, amount int) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.RefundCredits")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Account{}).
		Where("id = ?", id).
		Update("credits_remaining", gorm.Expr("credits_remaining + ?", amount))
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, fmt.Errorf("failed to refund credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var balance int
	if err := db.Model(&entity.Account{}).Where("id = ?", id).
		Select("credits_remaining").Scan(&balance).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read balance after refund: %w", err)
	}
	return balance, nil
}

// GrantCredits 原子增加可用积分与累计购买量
func (r *AccountRepository) GrantCredits(ctx context.Context, id string, amount int) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.AccountRepository.GrantCredits")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"credits_remaining":       gorm.Expr("credits_remaining + ?", amount),
			"total_credits_purchased": gorm.Expr("total_credits_purchased + ?", amount),
		})
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, fmt.Errorf("failed to grant credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var balance int
	if err := db.Model(&entity.Account{}).Where("id = ?", id).
		Select("credits_remaining").Scan(&balance).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read balance after grant: %w", err)
	}
	return balance, nil
}
