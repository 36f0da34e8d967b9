// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/interfaces/http/dto"
	"dtf-editor-api/internal/interfaces/http/middleware"
)

// ProcessHandler 图像处理处理器
type ProcessHandler struct {
	orchestrator *processing.Orchestrator
}

// NewProcessHandler 创建图像处理处理器
func NewProcessHandler(orchestrator *processing.Orchestrator) *ProcessHandler {
	return &ProcessHandler{orchestrator: orchestrator}
}

// Submit 提交处理请求
// POST /v1/process
func (h *ProcessHandler) Submit(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}

	var req dto.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	if err := validateProcessInput(&req); err != "" {
		dto.BadRequest(c, err)
		return
	}

	privileged := c.GetBool(middleware.CtxPrivileged)
	result, err := h.orchestrator.Submit(c.Request.Context(), req.ToSubmitRequest(accountID, privileged))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.NewProcessResponse(result)
	if result.Status == entity.JobStatusCompleted {
		dto.Success(c, resp)
		return
	}
	dto.Accepted(c, resp)
}

// validateProcessInput 操作类型相关的入参校验
func validateProcessInput(req *dto.ProcessRequest) string {
	op := entity.OperationKind(req.Operation)
	switch op {
	case entity.OperationGeneration:
		if req.Prompt == "" {
			return "prompt is required for generation"
		}
	default:
		if req.ImageURL == "" {
			return "image_url is required for " + req.Operation
		}
	}
	if op == entity.OperationUpscale {
		hasScale := req.Scale > 0
		hasPhysical := req.TargetPhysicalWidth > 0 || req.TargetPhysicalHeight > 0
		if hasScale && hasPhysical {
			return "scale and target physical size are mutually exclusive"
		}
		if hasPhysical && (req.SourceWidth <= 0 || req.SourceHeight <= 0) {
			return "source dimensions are required for physical size planning"
		}
	}
	return ""
}

// CostTable 查询操作价目表
// GET /v1/process/costs
func (h *ProcessHandler) CostTable(c *gin.Context) {
	ops := []entity.OperationKind{
		entity.OperationUpscale,
		entity.OperationBackgroundRemoval,
		entity.OperationVectorization,
		entity.OperationGeneration,
	}
	table := make(map[string]int, len(ops))
	for _, op := range ops {
		cost, err := h.orchestrator.CostFor(op)
		if err != nil {
			continue
		}
		table[string(op)] = cost
	}
	dto.Success(c, table)
}
