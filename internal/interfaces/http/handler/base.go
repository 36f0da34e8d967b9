// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"dtf-editor-api/internal/interfaces/http/dto"
	"dtf-editor-api/internal/interfaces/http/middleware"
	apperrors "dtf-editor-api/pkg/errors"
)

// writeError 将应用错误映射为 HTTP 响应
func writeError(c *gin.Context, err error) {
	if appErr := apperrors.AsAppError(err); appErr != nil {
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		})
		return
	}
	dto.InternalError(c, "internal server error")
}

// requireAccount 从认证上下文取账户 ID，缺失返回 401
func requireAccount(c *gin.Context) (string, bool) {
	accountID := c.GetString(middleware.CtxAccountID)
	if accountID == "" {
		dto.Unauthorized(c, "authentication required")
		return "", false
	}
	return accountID, true
}
