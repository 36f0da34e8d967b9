// Package processing 提供图像处理编排能力
package processing

import (
	"math"
)

// DimensionPlan 尺寸规划结果
type DimensionPlan struct {
	Scale        float64 `json:"scale"`
	OutputWidth  int     `json:"output_width"`
	OutputHeight int     `json:"output_height"`
	// Limited 任一硬上限生效时为 true，达成密度将低于目标
	Limited bool `json:"limited"`
}

// DimensionPlanner 纯函数的输出尺寸规划器。
// 先按目标密度计算需求（用户想要什么），再套硬性上限（系统能做什么），
// 顺序不可颠倒。
type DimensionPlanner struct {
	MaxSidePixels int
	MaxMegapixels float64
}

// NewDimensionPlanner 创建尺寸规划器
func NewDimensionPlanner(maxSidePixels int, maxMegapixels float64) *DimensionPlanner {
	return &DimensionPlanner{
		MaxSidePixels: maxSidePixels,
		MaxMegapixels: maxMegapixels,
	}
}

// Plan 计算达到目标打印密度所需的放大倍率与输出像素尺寸。
// targetPhysicalWidth/Height 单位为英寸，targetDensity 单位为 DPI。
// 两个维度都必须满足密度下限，因此取两轴所需倍率的较大者。
func (p *DimensionPlanner) Plan(sourceWidth, sourceHeight int, targetPhysicalWidth, targetPhysicalHeight, targetDensity float64) DimensionPlan {
	requiredWidth := math.Round(targetPhysicalWidth * targetDensity)
	requiredHeight := math.Round(targetPhysicalHeight * targetDensity)

	scaleX := requiredWidth / float64(sourceWidth)
	scaleY := requiredHeight / float64(sourceHeight)
	scale := math.Max(scaleX, scaleY)

	limited := false

	// 单边像素上限
	outW := scale * float64(sourceWidth)
	outH := scale * float64(sourceHeight)
	maxSide := float64(p.MaxSidePixels)
	if outW > maxSide || outH > maxSide {
		binding := math.Max(outW, outH)
		scale = scale * (maxSide / binding)
		outW = scale * float64(sourceWidth)
		outH = scale * float64(sourceHeight)
		limited = true
	}

	// 总像素（megapixel）预算
	budget := p.MaxMegapixels * 1e6
	if outW*outH > budget {
		shrink := math.Sqrt(budget / (outW * outH))
		scale *= shrink
		outW *= shrink
		outH *= shrink
		limited = true
	}

	return DimensionPlan{
		Scale:        scale,
		OutputWidth:  int(math.Round(outW)),
		OutputHeight: int(math.Round(outH)),
		Limited:      limited,
	}
}

// DPIQuality 打印质量等级
type DPIQuality string

const (
	DPIQualityExcellent DPIQuality = "excellent"
	DPIQualityGood      DPIQuality = "good"
	DPIQualityFair      DPIQuality = "fair"
	DPIQualityPoor      DPIQuality = "poor"
)

// DPIReport DPI 检测结果
type DPIReport struct {
	HorizontalDPI float64    `json:"horizontal_dpi"`
	VerticalDPI   float64    `json:"vertical_dpi"`
	AverageDPI    float64    `json:"average_dpi"`
	Quality       DPIQuality `json:"quality"`
}

// CalculateDPI 计算给定打印尺寸下的实际密度与质量等级
func CalculateDPI(sourceWidth, sourceHeight int, targetPhysicalWidth, targetPhysicalHeight float64) DPIReport {
	horizontal := float64(sourceWidth) / targetPhysicalWidth
	vertical := float64(sourceHeight) / targetPhysicalHeight
	average := (horizontal + vertical) / 2

	var quality DPIQuality
	switch {
	case average >= 300:
		quality = DPIQualityExcellent
	case average >= 200:
		quality = DPIQualityGood
	case average >= 150:
		quality = DPIQualityFair
	default:
		quality = DPIQualityPoor
	}

	return DPIReport{
		HorizontalDPI: math.Round(horizontal*10) / 10,
		VerticalDPI:   math.Round(vertical*10) / 10,
		AverageDPI:    math.Round(average*10) / 10,
		Quality:       quality,
	}
}
