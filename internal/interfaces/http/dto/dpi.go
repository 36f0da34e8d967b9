// Package dto 提供 HTTP 层数据传输对象
package dto

// DPICheckRequest 打印精度检查请求
type DPICheckRequest struct {
	SourceWidth          int     `json:"source_width" binding:"required,gt=0"`
	SourceHeight         int     `json:"source_height" binding:"required,gt=0"`
	TargetPhysicalWidth  float64 `json:"target_physical_width" binding:"required,gt=0"`
	TargetPhysicalHeight float64 `json:"target_physical_height" binding:"required,gt=0"`
}

// DPICheckResponse 打印精度检查响应
type DPICheckResponse struct {
	HorizontalDPI float64 `json:"horizontal_dpi"`
	VerticalDPI   float64 `json:"vertical_dpi"`
	AverageDPI    float64 `json:"average_dpi"`
	Quality       string  `json:"quality"`
}
