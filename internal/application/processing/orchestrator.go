// Package processing 提供图像处理编排能力
package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dtf-editor-api/internal/application/ledger"
	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/domain/service"
	"dtf-editor-api/internal/infrastructure/messaging"
	apperrors "dtf-editor-api/pkg/errors"
	"dtf-editor-api/pkg/logger"
	"dtf-editor-api/pkg/metrics"
)

// SubmitRequest 一次处理请求
type SubmitRequest struct {
	AccountID  string
	Operation  entity.OperationKind
	Privileged bool

	// Async 为 true 时立即返回任务句柄，由 worker 执行
	Async bool

	ImageURL  string
	ImageData []byte
	Prompt    string

	// 按倍率放大（"2"/"4"）或按目标物理尺寸规划，二选一
	Scale                int
	TargetPhysicalWidth  float64
	TargetPhysicalHeight float64
	SourceWidth          int
	SourceHeight         int

	// Timeout 同步调用的调用方时限；零值使用服务默认
	Timeout time.Duration

	Options map[string]string
}

// Result 处理结果：同步完成时携带输出，异步时携带任务句柄
type Result struct {
	JobID          string                  `json:"job_id,omitempty"`
	Status         entity.JobStatus        `json:"status"`
	Output         *service.ProviderResult `json:"output,omitempty"`
	CreditsCharged int                     `json:"credits_charged"`
	Plan           *DimensionPlan          `json:"plan,omitempty"`
}

// jobParams 任务入参的持久化形态
type jobParams struct {
	ImageURL     string            `json:"image_url,omitempty"`
	Prompt       string            `json:"prompt,omitempty"`
	Scale        int               `json:"scale,omitempty"`
	TargetWidth  int               `json:"target_width,omitempty"`
	TargetHeight int               `json:"target_height,omitempty"`
	Options      map[string]string `json:"options,omitempty"`
}

// Orchestrator 处理编排器：授权、扣费、分发、对账、成本记录
type Orchestrator struct {
	ledger    *ledger.Service
	registry  service.ProviderRegistry
	recorder  service.CostRecorder
	jobRepo   repository.JobRepository
	producer  *messaging.Producer
	planner   *DimensionPlanner
	costs     config.CostsConfig
	limits    config.LimitsConfig
}

// NewOrchestrator 创建编排器
func NewOrchestrator(
	ledgerSvc *ledger.Service,
	registry service.ProviderRegistry,
	recorder service.CostRecorder,
	jobRepo repository.JobRepository,
	producer *messaging.Producer,
	planner *DimensionPlanner,
	cfg *config.ProcessingConfig,
) *Orchestrator {
	return &Orchestrator{
		ledger:   ledgerSvc,
		registry: registry,
		recorder: recorder,
		jobRepo:  jobRepo,
		producer: producer,
		planner:  planner,
		costs:    cfg.Costs,
		limits:   cfg.Limits,
	}
}

// CostFor 按操作类型查询积分价格（静态价目表）
func (o *Orchestrator) CostFor(op entity.OperationKind) (int, error) {
	switch op {
	case entity.OperationUpscale:
		return o.costs.Upscale, nil
	case entity.OperationBackgroundRemoval:
		return o.costs.BackgroundRemoval, nil
	case entity.OperationVectorization:
		return o.costs.Vectorization, nil
	case entity.OperationGeneration:
		return o.costs.Generation, nil
	default:
		return 0, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("unknown operation %q", op))
	}
}

// Submit 接受处理请求：授权 → 扣费 → 分发 → 对账 → 成本记录。
// 余额不足立即拒绝，不调用供应商也不返还；供应商失败则返还已扣积分。
// 无论结果如何，每个终态恰好记录一条成本流水。
func (o *Orchestrator) Submit(ctx context.Context, req *SubmitRequest) (*Result, error) {
	cost, err := o.CostFor(req.Operation)
	if err != nil {
		return nil, err
	}

	provider, err := o.registry.Resolve(req.Operation)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeOperationDisabled, "operation not available")
	}

	// 按目标物理尺寸规划输出像素
	var plan *DimensionPlan
	targetWidth, targetHeight := 0, 0
	if req.TargetPhysicalWidth > 0 && req.TargetPhysicalHeight > 0 && req.SourceWidth > 0 && req.SourceHeight > 0 {
		planned := o.planner.Plan(req.SourceWidth, req.SourceHeight,
			req.TargetPhysicalWidth, req.TargetPhysicalHeight, o.limits.TargetDensity)
		plan = &planned
		targetWidth, targetHeight = planned.OutputWidth, planned.OutputHeight
	}

	// 特权账户不扣费；普通账户预留即扣减
	charged := 0
	if !req.Privileged {
		if _, err := o.ledger.Reserve(ctx, req.AccountID, cost,
			fmt.Sprintf("%s processing", req.Operation)); err != nil {
			if errors.Is(err, apperrors.ErrInsufficientCredits) ||
				(apperrors.IsAppError(err) && apperrors.AsAppError(err).Code == apperrors.CodeInsufficientCredits) {
				metrics.InsufficientCreditsTotal.WithLabelValues(string(req.Operation)).Inc()
				metrics.ProcessingTotal.WithLabelValues(string(req.Operation), "rejected").Inc()
				// 被拒请求也是终态，成本计 0 入账
				_ = o.recorder.Record(ctx, service.CostUsageInput{
					AccountID:    req.AccountID,
					Provider:     provider.Name(),
					Operation:    req.Operation,
					Outcome:      entity.CostOutcomeFailure,
					Attempted:    false,
					ErrorMessage: "insufficient credits",
				})
			}
			return nil, err
		}
		charged = cost
		metrics.CreditsReserved.WithLabelValues(string(req.Operation)).Add(float64(cost))
	}

	params := &jobParams{
		ImageURL:     req.ImageURL,
		Prompt:       req.Prompt,
		Scale:        req.Scale,
		TargetWidth:  targetWidth,
		TargetHeight: targetHeight,
		Options:      req.Options,
	}

	if req.Async {
		return o.submitAsync(ctx, req, provider, charged, params, plan)
	}
	return o.submitSync(ctx, req, provider, charged, params, plan)
}

// submitAsync 创建任务并投递到消息队列
func (o *Orchestrator) submitAsync(ctx context.Context, req *SubmitRequest, provider service.Provider, charged int, params *jobParams, plan *DimensionPlan) (*Result, error) {
	rawParams, _ := json.Marshal(params)
	job := entity.NewProcessingJob(req.AccountID, req.Operation, provider.Name(), charged, rawParams)
	job.ID = uuid.NewString()

	if err := o.jobRepo.Create(ctx, job); err != nil {
		// 任务都没建起来就是基础设施失败，返还扣费
		o.refundCharged(ctx, req.AccountID, charged, "job creation failed")
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create job")
	}

	msg := &messaging.ImageJobMessage{
		JobID:     job.ID,
		AccountID: req.AccountID,
		Operation: string(req.Operation),
		Provider:  string(provider.Name()),
	}
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		msg.RequestID = reqID
	}
	if _, err := o.producer.PublishImageJob(ctx, msg); err != nil {
		o.refundCharged(ctx, req.AccountID, charged, "job dispatch failed")
		job.Fail("dispatch failed")
		_ = o.jobRepo.Update(ctx, job)
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to dispatch job")
	}

	metrics.ProcessingTotal.WithLabelValues(string(req.Operation), "accepted").Inc()
	logger.Info(ctx, "job accepted", "job_id", job.ID, "operation", req.Operation)
	return &Result{JobID: job.ID, Status: entity.JobStatusPending, CreditsCharged: charged, Plan: plan}, nil
}

// submitSync 同步调用供应商，带调用方时限
func (o *Orchestrator) submitSync(ctx context.Context, req *SubmitRequest, provider service.Provider, charged int, params *jobParams, plan *DimensionPlan) (*Result, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = o.limits.SyncDispatchLimit
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	inv, err := provider.Invoke(callCtx, o.buildProviderRequest(req, params))
	elapsed := int(time.Since(start).Milliseconds())

	if err != nil {
		// 预留成功后的供应商失败（含超时）：返还 + 失败成本记录
		o.refundCharged(ctx, req.AccountID, charged, fmt.Sprintf("%s failed", req.Operation))
		_ = o.recorder.Record(ctx, service.CostUsageInput{
			AccountID:    req.AccountID,
			Provider:     provider.Name(),
			Operation:    req.Operation,
			Outcome:      entity.CostOutcomeFailure,
			Attempted:    true,
			DurationMs:   elapsed,
			ErrorMessage: err.Error(),
		})
		metrics.ProcessingTotal.WithLabelValues(string(req.Operation), "failed").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeProviderError, "provider call failed")
	}

	// 同步完成
	if inv.Result != nil {
		_ = o.recorder.Record(ctx, service.CostUsageInput{
			AccountID:      req.AccountID,
			Provider:       provider.Name(),
			Operation:      req.Operation,
			Outcome:        entity.CostOutcomeSuccess,
			Attempted:      true,
			CreditsCharged: charged,
			DurationMs:     elapsed,
		})
		metrics.ProcessingTotal.WithLabelValues(string(req.Operation), "completed").Inc()
		metrics.ProcessingDuration.WithLabelValues(string(req.Operation)).Observe(float64(elapsed) / 1000)
		return &Result{Status: entity.JobStatusCompleted, Output: inv.Result, CreditsCharged: charged, Plan: plan}, nil
	}

	// 供应商返回远端句柄：登记任务并交给 worker 轮询，对账延后到 Finalize
	rawParams, _ := json.Marshal(params)
	job := entity.NewProcessingJob(req.AccountID, req.Operation, provider.Name(), charged, rawParams)
	job.ID = uuid.NewString()
	job.RemoteID = inv.Deferred.RemoteID
	job.Start()
	job.UpdateProgress(inv.Deferred.Progress)

	if err := o.jobRepo.Create(ctx, job); err != nil {
		o.refundCharged(ctx, req.AccountID, charged, "job registration failed")
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to register job")
	}
	if _, err := o.producer.PublishImageJob(ctx, &messaging.ImageJobMessage{
		JobID:     job.ID,
		AccountID: req.AccountID,
		Operation: string(req.Operation),
		Provider:  string(provider.Name()),
	}); err != nil {
		logger.Error(ctx, "failed to enqueue poll task", err, "job_id", job.ID)
	}

	metrics.ProcessingTotal.WithLabelValues(string(req.Operation), "accepted").Inc()
	return &Result{JobID: job.ID, Status: entity.JobStatusProcessing, CreditsCharged: charged, Plan: plan}, nil
}

// Finalize 任务终态对账，每个任务恰好执行一次。
// 通过任务行上的一次性标记做原子抢占；重复调用幂等返回已记录结果。
func (o *Orchestrator) Finalize(ctx context.Context, jobID string) (*Result, error) {
	job, err := o.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load job")
	}
	if job == nil {
		return nil, apperrors.ErrJobNotFound
	}
	if !job.Status.IsTerminal() {
		return nil, apperrors.New(apperrors.CodeConflict, "job has not reached a terminal state")
	}

	won, err := o.jobRepo.MarkFinalized(ctx, jobID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to finalize job")
	}
	if !won {
		// 已结算过：吞掉重复调用，返回已记录结果
		return resultFromJob(job), nil
	}

	switch job.Status {
	case entity.JobStatusCompleted:
		_ = o.recorder.Record(ctx, service.CostUsageInput{
			AccountID:      job.AccountID,
			JobID:          job.ID,
			Provider:       job.Provider,
			Operation:      job.Operation,
			Outcome:        entity.CostOutcomeSuccess,
			Attempted:      true,
			CreditsCharged: job.CreditsCharged,
			DurationMs:     job.DurationMs,
		})
		metrics.ProcessingTotal.WithLabelValues(string(job.Operation), "completed").Inc()
		metrics.ProcessingDuration.WithLabelValues(string(job.Operation)).Observe(float64(job.DurationMs) / 1000)

	case entity.JobStatusFailed, entity.JobStatusCancelled:
		o.refundCharged(ctx, job.AccountID, job.CreditsCharged, fmt.Sprintf("%s job %s", job.Operation, job.Status))
		_ = o.recorder.Record(ctx, service.CostUsageInput{
			AccountID:    job.AccountID,
			JobID:        job.ID,
			Provider:     job.Provider,
			Operation:    job.Operation,
			Outcome:      entity.CostOutcomeFailure,
			Attempted:    true,
			DurationMs:   job.DurationMs,
			ErrorMessage: job.ErrorMessage,
		})
		metrics.ProcessingTotal.WithLabelValues(string(job.Operation), string(job.Status)).Inc()
	}

	return resultFromJob(job), nil
}

// refundCharged 返还已扣积分；特权账户未扣费（charged 为 0）时跳过
func (o *Orchestrator) refundCharged(ctx context.Context, accountID string, charged int, reason string) {
	if charged <= 0 {
		return
	}
	if _, err := o.ledger.Refund(ctx, accountID, charged, reason); err != nil {
		// 返还失败不中断成本记录路径，留待人工对账
		logger.Error(ctx, "refund failed", err, "account_id", accountID, "amount", charged)
		return
	}
	metrics.CreditsRefunded.WithLabelValues(reason).Add(float64(charged))
}

// buildProviderRequest 组装供应商调用入参
func (o *Orchestrator) buildProviderRequest(req *SubmitRequest, params *jobParams) *service.ProviderRequest {
	options := params.Options
	if params.Scale > 1 {
		if options == nil {
			options = make(map[string]string)
		}
		options["scale"] = fmt.Sprintf("%d", params.Scale)
	}
	return &service.ProviderRequest{
		AccountID:    req.AccountID,
		Operation:    req.Operation,
		ImageURL:     params.ImageURL,
		ImageData:    req.ImageData,
		Prompt:       params.Prompt,
		TargetWidth:  params.TargetWidth,
		TargetHeight: params.TargetHeight,
		Options:      options,
	}
}

// resultFromJob 由任务行构造对外结果
func resultFromJob(job *entity.ProcessingJob) *Result {
	res := &Result{
		JobID:          job.ID,
		Status:         job.Status,
		CreditsCharged: job.CreditsCharged,
	}
	if job.Status == entity.JobStatusCompleted {
		res.Output = &service.ProviderResult{URL: job.ResultURL, Metadata: job.OutputResult}
	}
	return res
}
