// Package router 提供 HTTP 路由配置
package router

import (
	"dtf-editor-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers) {
	// 图像处理
	process := v1.Group("/process")
	{
		process.POST("", h.Process.Submit)
		process.GET("/costs", h.Process.CostTable)
	}

	// 任务管理
	jobs := v1.Group("/jobs")
	{
		jobs.GET("", h.Job.List)
		jobs.GET("/:id", h.Job.Get)
		jobs.GET("/:id/await", h.Job.Await)
		jobs.POST("/:id/cancel", h.Job.Cancel)
	}

	// 积分账本
	credits := v1.Group("/credits")
	{
		credits.GET("/balance", h.Credits.Balance)
		credits.GET("/transactions", h.Credits.History)
		credits.GET("/verify", h.Credits.Verify)
		credits.POST("/purchase", h.Credits.Purchase)
	}

	// 打印精度检查（免认证）
	v1.POST("/dpi/check", h.DPI.Check)

	// 管理端
	admin := v1.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/costs/summary", h.Admin.CostSummary)
		admin.POST("/credits/adjust", h.Admin.AdjustCredits)
	}
}
