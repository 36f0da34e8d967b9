// Package ledger 提供积分账本能力
package ledger

import (
	"context"

	"github.com/google/uuid"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	apperrors "dtf-editor-api/pkg/errors"
	"dtf-editor-api/pkg/logger"
)

// Service 积分账本服务。
// 预留即扣减（Reserve 即 Commit，无两阶段持有）；所有余额变更
// 都通过单条原子 UPDATE 完成，并在同一事务内落一条流水。
type Service struct {
	accountRepo repository.AccountRepository
	txRepo      repository.CreditTransactionRepository
	txManager   repository.Transactor
}

// NewService 创建账本服务
func NewService(
	accountRepo repository.AccountRepository,
	txRepo repository.CreditTransactionRepository,
	txManager repository.Transactor,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		txManager:   txManager,
	}
}

// Reserve 原子预留（扣减）积分。
// 余额不足时返回 ErrInsufficientCredits，且账户无任何变更。
func (s *Service) Reserve(ctx context.Context, accountID string, amount int, description string) (*entity.CreditTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "reserve amount must be positive")
	}

	var tx *entity.CreditTransaction
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		balanceAfter, ok, err := s.accountRepo.ReserveCredits(txCtx, accountID, amount)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to reserve credits")
		}
		if !ok {
			account, err := s.accountRepo.GetByID(txCtx, accountID)
			if err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load account")
			}
			if account == nil {
				return apperrors.ErrAccountNotFound
			}
			return apperrors.ErrInsufficientCredits
		}

		tx = &entity.CreditTransaction{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			Type:         entity.TransactionUsage,
			Amount:       -amount,
			BalanceAfter: balanceAfter,
			Description:  description,
		}
		if err := s.txRepo.Create(txCtx, tx); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to record usage transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "credits reserved", "account_id", accountID, "amount", amount, "balance_after", tx.BalanceAfter)
	return tx, nil
}

// Refund 无条件返还积分，不回退 credits_used。
// 每个失败请求至多返还一次由调用方保证（编排器通过任务结算一次性标记约束）。
func (s *Service) Refund(ctx context.Context, accountID string, amount int, reason string) (*entity.CreditTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "refund amount must be positive")
	}

	var tx *entity.CreditTransaction
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		balanceAfter, err := s.accountRepo.RefundCredits(txCtx, accountID, amount)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to refund credits")
		}

		tx = &entity.CreditTransaction{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			Type:         entity.TransactionRefund,
			Amount:       amount,
			BalanceAfter: balanceAfter,
			Description:  reason,
		}
		if err := s.txRepo.Create(txCtx, tx); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to record refund transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "credits refunded", "account_id", accountID, "amount", amount, "reason", reason)
	return tx, nil
}

// Grant 购买积分：增加可用余额与累计购买量
func (s *Service) Grant(ctx context.Context, accountID string, amount int, description string) (*entity.CreditTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "grant amount must be positive")
	}

	var tx *entity.CreditTransaction
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		balanceAfter, err := s.accountRepo.GrantCredits(txCtx, accountID, amount)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to grant credits")
		}

		tx = &entity.CreditTransaction{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			Type:         entity.TransactionPurchase,
			Amount:       amount,
			BalanceAfter: balanceAfter,
			Description:  description,
		}
		return s.txRepo.Create(txCtx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Adjust 管理员积分调整（正数），以 adjustment 流水审计
func (s *Service) Adjust(ctx context.Context, accountID string, amount int, description string) (*entity.CreditTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "adjustment amount must be positive")
	}

	var tx *entity.CreditTransaction
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		balanceAfter, err := s.accountRepo.RefundCredits(txCtx, accountID, amount)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to adjust credits")
		}

		tx = &entity.CreditTransaction{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			Type:         entity.TransactionAdjustment,
			Amount:       amount,
			BalanceAfter: balanceAfter,
			Description:  description,
		}
		return s.txRepo.Create(txCtx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// BalanceReport 对账结果
type BalanceReport struct {
	AccountID        string `json:"account_id"`
	CreditsRemaining int    `json:"credits_remaining"`
	ExpectedBalance  int64  `json:"expected_balance"`
	Consistent       bool   `json:"consistent"`
}

// VerifyBalance 校验余额不变式：
// credits_remaining 必须等于全部流水的有符号金额之和。
// 不一致时大声失败并上报，绝不静默修正。
func (s *Service) VerifyBalance(ctx context.Context, accountID string) (*BalanceReport, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load account")
	}
	if account == nil {
		return nil, apperrors.ErrAccountNotFound
	}

	sums, err := s.txRepo.SumByType(ctx, accountID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to sum transactions")
	}

	var expected int64
	for _, total := range sums {
		expected += total
	}

	report := &BalanceReport{
		AccountID:        accountID,
		CreditsRemaining: account.CreditsRemaining,
		ExpectedBalance:  expected,
		Consistent:       int64(account.CreditsRemaining) == expected,
	}

	if !report.Consistent {
		err := apperrors.ErrLedgerConsistency.WithDetail(
			"balance does not match transaction log")
		logger.Error(ctx, "ledger consistency violation", err,
			"account_id", accountID,
			"credits_remaining", account.CreditsRemaining,
			"expected_balance", expected,
		)
		return report, err
	}
	return report, nil
}

// Balance 获取账户当前余额信息
func (s *Service) Balance(ctx context.Context, accountID string) (*entity.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load account")
	}
	if account == nil {
		return nil, apperrors.ErrAccountNotFound
	}
	return account, nil
}

// History 获取账户流水（分页）
func (s *Service) History(ctx context.Context, accountID string, pagination repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	return s.txRepo.ListByAccount(ctx, accountID, pagination)
}
