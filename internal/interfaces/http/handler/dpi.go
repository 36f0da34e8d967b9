// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/interfaces/http/dto"
)

// DPIHandler 打印精度检查处理器（免认证、免积分）
type DPIHandler struct{}

// NewDPIHandler 创建精度检查处理器
func NewDPIHandler() *DPIHandler {
	return &DPIHandler{}
}

// Check 计算目标物理尺寸下的打印精度
// POST /v1/dpi/check
func (h *DPIHandler) Check(c *gin.Context) {
	var req dto.DPICheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	report := processing.CalculateDPI(req.SourceWidth, req.SourceHeight,
		req.TargetPhysicalWidth, req.TargetPhysicalHeight)
	dto.Success(c, &dto.DPICheckResponse{
		HorizontalDPI: report.HorizontalDPI,
		VerticalDPI:   report.VerticalDPI,
		AverageDPI:    report.AverageDPI,
		Quality:       string(report.Quality),
	})
}
