// Package handler 提供 HTTP 请求处理器
package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"dtf-editor-api/internal/application/jobtrack"
	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/interfaces/http/dto"
)

// JobHandler 任务查询与控制处理器
type JobHandler struct {
	tracker      *jobtrack.Tracker
	orchestrator *processing.Orchestrator
}

// NewJobHandler 创建任务处理器
func NewJobHandler(tracker *jobtrack.Tracker, orchestrator *processing.Orchestrator) *JobHandler {
	return &JobHandler{tracker: tracker, orchestrator: orchestrator}
}

// Get 查询任务状态
// GET /v1/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	status, err := h.tracker.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if status.AccountID != accountID {
		dto.NotFound(c, "job not found")
		return
	}
	dto.Success(c, dto.NewJobStatusResponse(status))
}

// List 分页列出账户任务
// GET /v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	var query dto.JobListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	filter := &repository.JobFilter{
		Operation: entity.OperationKind(query.Operation),
		Status:    entity.JobStatus(query.Status),
	}
	result, err := h.tracker.List(c.Request.Context(), accountID, filter, repository.Pagination{
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]*dto.JobStatusResponse, 0, len(result.Items))
	for _, job := range result.Items {
		items = append(items, dto.NewJobStatusResponseFromEntity(job))
	}
	dto.SuccessWithPage(c, items, dto.NewPageMeta(query.Page, query.PageSize, int(result.Total)))
}

// Cancel 请求取消任务。取消成功后触发结算（失败任务的积分返还）。
// POST /v1/jobs/:id/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	jobID := c.Param("id")
	status, err := h.tracker.Status(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	if status.AccountID != accountID {
		dto.NotFound(c, "job not found")
		return
	}

	cancelled, err := h.tracker.Cancel(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	if cancelled.Status == entity.JobStatusCancelled {
		if _, err := h.orchestrator.Finalize(c.Request.Context(), jobID); err != nil {
			writeError(c, err)
			return
		}
	}
	dto.Success(c, dto.NewJobStatusResponse(cancelled))
}

// Await 阻塞等待任务终态
// GET /v1/jobs/:id/await
func (h *JobHandler) Await(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	jobID := c.Param("id")
	status, err := h.tracker.Status(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	if status.AccountID != accountID {
		dto.NotFound(c, "job not found")
		return
	}

	var query dto.AwaitQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	final, err := h.tracker.Await(c.Request.Context(), jobID,
		time.Duration(query.IntervalMs)*time.Millisecond,
		time.Duration(query.MaxWaitSec)*time.Second)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.NewJobStatusResponse(final))
}
