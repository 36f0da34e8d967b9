// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"dtf-editor-api/internal/domain/entity"
)

// JobFilter 任务过滤条件
type JobFilter struct {
	Operation entity.OperationKind
	Status    entity.JobStatus
}

// JobRepository 处理任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.ProcessingJob) error

	// GetByID 根据 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.ProcessingJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.ProcessingJob) error

	// ListByAccount 获取账户任务列表
	ListByAccount(ctx context.Context, accountID string, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.ProcessingJob], error)

	// MarkProcessing 标记任务开始执行
	MarkProcessing(ctx context.Context, id string) error

	// UpdateProgress 更新任务进度（0-100），进度单调不减
	UpdateProgress(ctx context.Context, id string, progress int) error

	// SetResult 设置任务终态结果
	SetResult(ctx context.Context, id string, result []byte, resultURL string, errMsg string) error

	// CancelIfActive 将非终态任务置为已取消；任务已在终态时返回 false
	CancelIfActive(ctx context.Context, id string) (bool, error)

	// MarkFinalized 原子置位结算标记
	// 单条 UPDATE ... WHERE finalized = false；已结算时返回 false
	MarkFinalized(ctx context.Context, id string) (bool, error)

	// DeleteTerminalBefore 清除指定时间之前完成的终态任务，返回清除数量
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountActive 统计非终态任务数量
	CountActive(ctx context.Context) (int64, error)

	// GetJobStats 获取账户任务统计信息
	GetJobStats(ctx context.Context, accountID string) (*JobStats, error)
}

// JobStats 任务统计信息
type JobStats struct {
	TotalJobs          int64 `json:"total_jobs"`
	PendingJobs        int64 `json:"pending_jobs"`
	ProcessingJobs     int64 `json:"processing_jobs"`
	CompletedJobs      int64 `json:"completed_jobs"`
	FailedJobs         int64 `json:"failed_jobs"`
	CancelledJobs      int64 `json:"cancelled_jobs"`
	TotalCreditsCharged int64 `json:"total_credits_charged"`
}
