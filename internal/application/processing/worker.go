package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/domain/service"
	"dtf-editor-api/internal/infrastructure/messaging"
	"dtf-editor-api/pkg/logger"
	"dtf-editor-api/pkg/metrics"
)

// JobStatusCache 任务状态缓存失效入口
type JobStatusCache interface {
	InvalidateJob(ctx context.Context, jobID string) error
}

// Worker 异步任务执行器：消费任务消息，调用供应商，落库终态并触发结算
type Worker struct {
	jobRepo      repository.JobRepository
	registry     service.ProviderRegistry
	orchestrator *Orchestrator
	cache        JobStatusCache
	pollInterval time.Duration
	maxPolls     int
}

// NewWorker 创建任务执行器
func NewWorker(jobRepo repository.JobRepository, registry service.ProviderRegistry, orchestrator *Orchestrator, cache JobStatusCache, pollInterval time.Duration, maxPolls int) *Worker {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 24
	}
	return &Worker{
		jobRepo:      jobRepo,
		registry:     registry,
		orchestrator: orchestrator,
		cache:        cache,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
	}
}

// Register 在消费者上注册任务消息处理器与死信回调
func (w *Worker) Register(consumer *messaging.Consumer) {
	consumer.RegisterHandler(messaging.MsgTypeImageProcess, w.HandleImageJob)
	consumer.OnDLQ(w.HandleDeadLetter)
}

// HandleDeadLetter 消息重试耗尽进入死信队列：对应任务按供应商失败
// 落终态并结算退款，否则扣掉的积分会随消息一起悬挂。
func (w *Worker) HandleDeadLetter(ctx context.Context, msg *messaging.Message) {
	var payload messaging.ImageJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		logger.Error(ctx, "failed to decode dead letter", err, "message_id", msg.ID)
		return
	}

	job, err := w.jobRepo.GetByID(ctx, payload.JobID)
	if err != nil {
		logger.Error(ctx, "failed to load dead-lettered job", err, "job_id", payload.JobID)
		return
	}
	if job == nil {
		return
	}

	if job.Status.IsTerminal() {
		// 终态但可能还没结算（如用户取消后消息死信）
		if _, err := w.orchestrator.Finalize(ctx, job.ID); err != nil {
			logger.Error(ctx, "failed to finalize dead-lettered job", err, "job_id", job.ID)
		}
		_ = w.cache.InvalidateJob(ctx, job.ID)
		return
	}

	w.finish(ctx, job, nil, "", "retries exhausted")
}

// HandleImageJob 执行一条图像处理任务消息。
// 返回 error 表示消息需要重试；业务性失败落到任务行上并 ack。
func (w *Worker) HandleImageJob(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.ImageJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode job message: %w", err)
	}

	job, err := w.jobRepo.GetByID(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", payload.JobID, err)
	}
	if job == nil {
		// 任务已被清理，消息过期，直接确认
		logger.Warn(ctx, "job message for unknown job", "job_id", payload.JobID)
		return nil
	}
	if job.Status.IsTerminal() {
		// 消费前已被取消等场景：只需补结算
		_, err := w.orchestrator.Finalize(ctx, job.ID)
		return err
	}

	provider, err := w.registry.Resolve(job.Operation)
	if err != nil {
		w.finish(ctx, job, nil, "", fmt.Sprintf("operation %s no longer available", job.Operation))
		return nil
	}

	if job.Status == entity.JobStatusPending {
		if err := w.jobRepo.MarkProcessing(ctx, job.ID); err != nil {
			return fmt.Errorf("failed to mark job processing: %w", err)
		}
		job.Start()
	}

	handle := &service.DeferredHandle{RemoteID: job.RemoteID}
	if job.RemoteID == "" {
		// 首次执行：发起供应商调用
		inv, err := provider.Invoke(ctx, w.requestFromJob(job))
		if err != nil {
			return w.handleProviderError(ctx, job, err)
		}
		if inv.Result != nil {
			w.complete(ctx, job, inv.Result)
			return nil
		}
		handle = inv.Deferred
		job.RemoteID = handle.RemoteID
		if handle.Progress > job.Progress {
			job.Progress = handle.Progress
		}
		if err := w.jobRepo.Update(ctx, job); err != nil {
			logger.Warn(ctx, "failed to persist remote id", "job_id", job.ID, "error", err)
		}
		_ = w.cache.InvalidateJob(ctx, job.ID)
	}

	return w.pollUntilDone(ctx, job, provider, handle)
}

// pollUntilDone 轮询远端任务直到终态或超出轮询上限
func (w *Worker) pollUntilDone(ctx context.Context, job *entity.ProcessingJob, provider service.Provider, handle *service.DeferredHandle) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for i := 0; i < w.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		// 轮询间隙里任务可能被用户取消
		current, err := w.jobRepo.GetByID(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("failed to reload job %s: %w", job.ID, err)
		}
		if current == nil || current.Status.IsTerminal() {
			if current != nil {
				_, _ = w.orchestrator.Finalize(ctx, job.ID)
				_ = w.cache.InvalidateJob(ctx, job.ID)
			}
			return nil
		}

		inv, err := provider.Poll(ctx, handle)
		if err != nil {
			return w.handleProviderError(ctx, job, err)
		}
		if inv.Result != nil {
			w.complete(ctx, job, inv.Result)
			return nil
		}
		handle = inv.Deferred
		w.progress(ctx, job.ID, handle.Progress)
	}

	// 远端迟迟不完成，按供应商失败处理
	w.finish(ctx, job, nil, "", "provider polling exceeded limit")
	return nil
}

// handleProviderError 可重试错误交回消息队列退避重试，否则落终态
func (w *Worker) handleProviderError(ctx context.Context, job *entity.ProcessingJob, err error) error {
	var provErr *service.ProviderError
	if errors.As(err, &provErr) && provErr.Retryable {
		logger.Warn(ctx, "retryable provider failure", "job_id", job.ID, "error", err)
		return err
	}
	w.finish(ctx, job, nil, "", err.Error())
	return nil
}

func (w *Worker) complete(ctx context.Context, job *entity.ProcessingJob, result *service.ProviderResult) {
	raw, _ := json.Marshal(result)
	w.finish(ctx, job, raw, result.URL, "")
}

// finish 落库终态、结算并失效状态缓存
func (w *Worker) finish(ctx context.Context, job *entity.ProcessingJob, result []byte, resultURL, errMsg string) {
	if err := w.jobRepo.SetResult(ctx, job.ID, result, resultURL, errMsg); err != nil {
		logger.Error(ctx, "failed to store job result", err, "job_id", job.ID)
		return
	}
	if _, err := w.orchestrator.Finalize(ctx, job.ID); err != nil {
		logger.Error(ctx, "failed to finalize job", err, "job_id", job.ID)
	}
	if err := w.cache.InvalidateJob(ctx, job.ID); err != nil {
		logger.Warn(ctx, "failed to invalidate job status cache", "job_id", job.ID, "error", err)
	}

	status := "completed"
	if errMsg != "" {
		status = "failed"
	}
	metrics.RedisStreamProcessed.WithLabelValues(string(messaging.StreamImageJobs), status).Inc()
	logger.Info(ctx, "job finished", "job_id", job.ID, "status", status)
}

func (w *Worker) progress(ctx context.Context, jobID string, progress int) {
	if progress <= 0 {
		return
	}
	if err := w.jobRepo.UpdateProgress(ctx, jobID, progress); err != nil {
		logger.Warn(ctx, "failed to update progress", "job_id", jobID, "error", err)
	}
	_ = w.cache.InvalidateJob(ctx, jobID)
}

// requestFromJob 从任务行还原供应商调用入参
func (w *Worker) requestFromJob(job *entity.ProcessingJob) *service.ProviderRequest {
	var params jobParams
	_ = json.Unmarshal(job.InputParams, &params)

	options := params.Options
	if params.Scale > 1 {
		if options == nil {
			options = make(map[string]string)
		}
		options["scale"] = fmt.Sprintf("%d", params.Scale)
	}
	return &service.ProviderRequest{
		AccountID:    job.AccountID,
		JobID:        job.ID,
		Operation:    job.Operation,
		ImageURL:     params.ImageURL,
		Prompt:       params.Prompt,
		TargetWidth:  params.TargetWidth,
		TargetHeight: params.TargetHeight,
		Options:      options,
	}
}
