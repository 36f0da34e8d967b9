// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/domain/entity"
)

// ProcessRequest 图像处理请求
type ProcessRequest struct {
	Operation string `json:"operation" binding:"required,oneof=upscale background_removal vectorization generation"`

	ImageURL string `json:"image_url,omitempty" binding:"omitempty,url"`
	Prompt   string `json:"prompt,omitempty" binding:"omitempty,max=4000"`

	// Scale 按倍率放大（2 或 4），与目标物理尺寸二选一
	Scale int `json:"scale,omitempty" binding:"omitempty,oneof=2 4"`

	// 按目标物理尺寸（英寸）规划输出像素，需同时给出源图尺寸
	TargetPhysicalWidth  float64 `json:"target_physical_width,omitempty" binding:"omitempty,gt=0"`
	TargetPhysicalHeight float64 `json:"target_physical_height,omitempty" binding:"omitempty,gt=0"`
	SourceWidth          int     `json:"source_width,omitempty" binding:"omitempty,gt=0"`
	SourceHeight         int     `json:"source_height,omitempty" binding:"omitempty,gt=0"`

	// Async 为 true 时立即返回任务句柄
	Async bool `json:"async,omitempty"`

	// TimeoutSeconds 同步处理的等待上限
	TimeoutSeconds int `json:"timeout_seconds,omitempty" binding:"omitempty,min=1,max=300"`

	Options map[string]string `json:"options,omitempty"`
}

// ToSubmitRequest 转换为编排层请求
func (r *ProcessRequest) ToSubmitRequest(accountID string, privileged bool) *processing.SubmitRequest {
	return &processing.SubmitRequest{
		AccountID:            accountID,
		Operation:            entity.OperationKind(r.Operation),
		Privileged:           privileged,
		Async:                r.Async,
		ImageURL:             r.ImageURL,
		Prompt:               r.Prompt,
		Scale:                r.Scale,
		TargetPhysicalWidth:  r.TargetPhysicalWidth,
		TargetPhysicalHeight: r.TargetPhysicalHeight,
		SourceWidth:          r.SourceWidth,
		SourceHeight:         r.SourceHeight,
		Timeout:              time.Duration(r.TimeoutSeconds) * time.Second,
		Options:              r.Options,
	}
}

// ProcessResponse 图像处理响应
type ProcessResponse struct {
	JobID          string                 `json:"job_id,omitempty"`
	Status         string                 `json:"status"`
	ResultURL      string                 `json:"result_url,omitempty"`
	Width          int                    `json:"width,omitempty"`
	Height         int                    `json:"height,omitempty"`
	Format         string                 `json:"format,omitempty"`
	CreditsCharged int                    `json:"credits_charged"`
	Plan           *DimensionPlanResponse `json:"plan,omitempty"`
}

// DimensionPlanResponse 尺寸规划结果
type DimensionPlanResponse struct {
	Scale        float64 `json:"scale"`
	OutputWidth  int     `json:"output_width"`
	OutputHeight int     `json:"output_height"`
	Limited      bool    `json:"limited"`
}

// NewProcessResponse 从编排结果构造响应
func NewProcessResponse(res *processing.Result) *ProcessResponse {
	resp := &ProcessResponse{
		JobID:          res.JobID,
		Status:         string(res.Status),
		CreditsCharged: res.CreditsCharged,
	}
	if res.Output != nil {
		resp.ResultURL = res.Output.URL
		resp.Width = res.Output.Width
		resp.Height = res.Output.Height
		resp.Format = res.Output.Format
	}
	if res.Plan != nil {
		resp.Plan = &DimensionPlanResponse{
			Scale:        res.Plan.Scale,
			OutputWidth:  res.Plan.OutputWidth,
			OutputHeight: res.Plan.OutputHeight,
			Limited:      res.Plan.Limited,
		}
	}
	return resp
}
