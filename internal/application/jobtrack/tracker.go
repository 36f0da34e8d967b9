// Package jobtrack 提供任务状态跟踪、取消与清理能力
package jobtrack

import (
	"context"
	"encoding/json"
	"time"

	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/infrastructure/persistence/redis"
	apperrors "dtf-editor-api/pkg/errors"
	"dtf-editor-api/pkg/logger"
	"dtf-editor-api/pkg/metrics"
)

// StatusCache 任务状态缓存
type StatusCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
	InvalidateJob(ctx context.Context, jobID string) error
}

// Finalizer 任务终态结算入口（失败/取消任务的积分返还在这里发生）
type Finalizer interface {
	Finalize(ctx context.Context, jobID string) (*processing.Result, error)
}

// JobStatus 任务状态快照
type JobStatus struct {
	JobID          string               `json:"job_id"`
	AccountID      string               `json:"account_id"`
	Operation      entity.OperationKind `json:"operation"`
	Provider       entity.ProviderName  `json:"provider"`
	Status         entity.JobStatus     `json:"status"`
	Progress       int                  `json:"progress"`
	CreditsCharged int                  `json:"credits_charged"`
	ResultURL      string               `json:"result_url,omitempty"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
}

// Tracker 任务跟踪器。状态查询走 Redis 缓存抗热点轮询，
// 终态任务过保留期后由后台清理任务删除，之后查询返回未找到。
type Tracker struct {
	jobRepo   repository.JobRepository
	cache     StatusCache
	finalizer Finalizer
	retention config.RetentionConfig
}

// NewTracker 创建任务跟踪器
func NewTracker(jobRepo repository.JobRepository, cache StatusCache, cfg *config.ProcessingConfig, finalizer Finalizer) *Tracker {
	return &Tracker{
		jobRepo:   jobRepo,
		cache:     cache,
		finalizer: finalizer,
		retention: cfg.Retention,
	}
}

// Status 查询任务状态快照，非阻塞
func (t *Tracker) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	data, err := t.cache.GetOrLoadSafe(ctx, redis.BuildJobStatusKey(jobID), t.retention.StatusCacheTTL, func() (interface{}, error) {
		job, err := t.jobRepo.GetByID(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job == nil {
			return nil, apperrors.ErrJobNotFound
		}
		return snapshotOf(job), nil
	})
	if err != nil {
		return nil, err
	}

	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to decode job status")
	}
	return &status, nil
}

// Cancel 请求取消任务。取消是建议性的：非终态任务立即转为已取消，
// 已结束的任务保持原状态并提示冲突。取消本身不触发退款。
func (t *Tracker) Cancel(ctx context.Context, jobID string) (*JobStatus, error) {
	cancelled, err := t.jobRepo.CancelIfActive(ctx, jobID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to cancel job")
	}

	job, err := t.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load job")
	}
	if job == nil {
		return nil, apperrors.ErrJobNotFound
	}

	if err := t.cache.InvalidateJob(ctx, jobID); err != nil {
		logger.Warn(ctx, "failed to invalidate job status cache", "job_id", jobID, "error", err)
	}

	if !cancelled && !job.Status.IsTerminal() {
		return nil, apperrors.New(apperrors.CodeConflict, "job could not be cancelled")
	}
	return snapshotOf(job), nil
}

// Await 轮询等待任务终态，超出 maxWait 视为超时失败并顺带请求取消
func (t *Tracker) Await(ctx context.Context, jobID string, interval, maxWait time.Duration) (*JobStatus, error) {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := t.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.Status.IsTerminal() {
			return status, nil
		}
		if time.Now().After(deadline) {
			// 超时等同供应商失败；顺带取消避免白白占用远端配额。
			// 随即主动结算退款：消息可能已进死信队列，没有 worker
			// 还会注意到取消状态。结算有一次性标记兜底，重复无害。
			if _, err := t.Cancel(ctx, jobID); err != nil {
				logger.Warn(ctx, "courtesy cancel failed", "job_id", jobID, "error", err)
			}
			if _, err := t.finalizer.Finalize(ctx, jobID); err != nil {
				logger.Warn(ctx, "timeout finalize failed", "job_id", jobID, "error", err)
			}
			return nil, apperrors.ErrJobTimeout.WithDetail("job " + jobID + " did not finish in time")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// List 按账户分页列出任务
func (t *Tracker) List(ctx context.Context, accountID string, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.ProcessingJob], error) {
	return t.jobRepo.ListByAccount(ctx, accountID, filter, pagination)
}

// SweepLoop 周期清理过保留期的终态任务。清理是有损的：
// 被清理任务的状态查询返回未找到。阻塞运行直到 ctx 结束。
func (t *Tracker) SweepLoop(ctx context.Context) {
	ticker := time.NewTicker(t.retention.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-t.retention.JobTTL)
			purged, err := t.jobRepo.DeleteTerminalBefore(ctx, cutoff)
			if err != nil {
				logger.Error(ctx, "job sweep failed", err)
				continue
			}
			if purged > 0 {
				logger.Info(ctx, "purged expired jobs", "count", purged, "cutoff", cutoff)
			}
			if active, err := t.jobRepo.CountActive(ctx); err == nil {
				metrics.ProcessingJobsActive.Set(float64(active))
			}
		}
	}
}

func snapshotOf(job *entity.ProcessingJob) *JobStatus {
	return &JobStatus{
		JobID:          job.ID,
		AccountID:      job.AccountID,
		Operation:      job.Operation,
		Provider:       job.Provider,
		Status:         job.Status,
		Progress:       job.Progress,
		CreditsCharged: job.CreditsCharged,
		ResultURL:      job.ResultURL,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		CompletedAt:    job.CompletedAt,
	}
}
