// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
)

// JobRepository 任务仓储实现
type JobRepository struct {
	client *Client
}

// NewJobRepository 创建任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.ProcessingJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.ProcessingJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var job entity.ProcessingJob
	if err := db.First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// Update 更新任务
func (r *JobRepository) Update(ctx context.Context, job *entity.ProcessingJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// ListByAccount 获取账户任务列表
func (r *JobRepository) ListByAccount(ctx context.Context, accountID string, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.ProcessingJob], error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.ListByAccount")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ProcessingJob{}).Where("account_id = ?", accountID)

	// 应用过滤条件
	if filter != nil {
		if filter.Operation != "" {
			query = query.Where("operation = ?", filter.Operation)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	// 获取列表
	var jobs []*entity.ProcessingJob
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&jobs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return repository.NewPagedResult(jobs, total, pagination), nil
}

// MarkProcessing 标记任务开始执行
func (r *JobRepository) MarkProcessing(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.MarkProcessing")
	defer span.End()

	db := getDB(ctx, r.client.db)
	now := time.Now()
	if err := db.Model(&entity.ProcessingJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     entity.JobStatusProcessing,
		"started_at": now,
	}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	return nil
}

// UpdateProgress 更新任务进度，进度单调不减
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.UpdateProgress")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.ProcessingJob{}).Where("id = ?", id).
		Update("progress", gorm.Expr("GREATEST(progress, ?)", progress)).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// SetResult 设置任务终态结果
func (r *JobRepository) SetResult(ctx context.Context, id string, result []byte, resultURL string, errMsg string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.SetResult")
	defer span.End()

	db := getDB(ctx, r.client.db)
	now := time.Now()
	updates := map[string]interface{}{
		"completed_at": now,
	}
	if result != nil || resultURL != "" {
		updates["output_result"] = result
		updates["result_url"] = resultURL
		updates["status"] = entity.JobStatusCompleted
		updates["progress"] = 100
	}
	if errMsg != "" {
		updates["error_message"] = errMsg
		updates["status"] = entity.JobStatusFailed
	}

	if err := db.Model(&entity.ProcessingJob{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set job result: %w", err)
	}
	return nil
}

// CancelIfActive 将非终态任务置为已取消
func (r *JobRepository) CancelIfActive(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.CancelIfActive")
	defer span.End()

	db := getDB(ctx, r.client.db)
	now := time.Now()
	result := db.Model(&entity.ProcessingJob{}).
		Where("id = ? AND status IN ?", id, []entity.JobStatus{entity.JobStatusPending, entity.JobStatusProcessing}).
		Updates(map[string]interface{}{
			"status":       entity.JobStatusCancelled,
			"completed_at": now,
		})
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to cancel job: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkFinalized 原子置位结算标记，已结算时返回 false
func (r *JobRepository) MarkFinalized(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.MarkFinalized")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.ProcessingJob{}).
		Where("id = ? AND finalized = ?", id, false).
		Update("finalized", true)
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to mark job finalized: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteTerminalBefore 清除指定时间之前完成的终态任务。
// 未结算（finalized = false）的任务不清除：删掉它就再也无法退款
func (r *JobRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.DeleteTerminalBefore")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Where("status IN ? AND completed_at < ? AND finalized = ?",
		[]entity.JobStatus{entity.JobStatusCompleted, entity.JobStatusFailed, entity.JobStatusCancelled},
		cutoff,
		true,
	).Delete(&entity.ProcessingJob{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, fmt.Errorf("failed to delete terminal jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountActive 统计非终态任务数量
func (r *JobRepository) CountActive(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.CountActive")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.ProcessingJob{}).
		Where("status IN ?", []entity.JobStatus{entity.JobStatusPending, entity.JobStatusProcessing}).
		Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count active jobs: %w", err)
	}
	return count, nil
}

// GetJobStats 获取账户任务统计信息
func (r *JobRepository) GetJobStats(ctx context.Context, accountID string) (*repository.JobStats, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetJobStats")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var stats repository.JobStats

	db.Model(&entity.ProcessingJob{}).Where("account_id = ?", accountID).Count(&stats.TotalJobs)
	db.Model(&entity.ProcessingJob{}).Where("account_id = ? AND status = ?", accountID, entity.JobStatusPending).Count(&stats.PendingJobs)
	db.Model(&entity.ProcessingJob{}).Where("account_id = ? AND status = ?", accountID, entity.JobStatusProcessing).Count(&stats.ProcessingJobs)
	db.Model(&entity.ProcessingJob{}).Where("account_id = ? AND status = ?", accountID, entity.JobStatusCompleted).Count(&stats.CompletedJobs)
	db.Model(&entity.ProcessingJob{}).Where("account_id = ? AND status = ?", accountID, entity.JobStatusFailed).Count(&stats.FailedJobs)
	db.Model(&entity.ProcessingJob{}).Where("account_id = ? AND status = ?", accountID, entity.JobStatusCancelled).Count(&stats.CancelledJobs)

	var charged *int64
	db.Model(&entity.ProcessingJob{}).Where("account_id = ?", accountID).Select("SUM(credits_charged)").Scan(&charged)
	if charged != nil {
		stats.TotalCreditsCharged = *charged
	}

	return &stats, nil
}
