package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"nb-studio-api/internal/interfaces/http/dto"
	apperrors "nb-studio-api/pkg/errors"
	"nb-studio-api/pkg/logger"
)

// respondError 将应用错误映射为 HTTP 响应
// 非 AppError 一律按内部错误处理，避免向外泄露实现细节。
func respondError(c *gin.Context, ctx context.Context, err error, fallback string) {
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		logger.Error(ctx, fallback, err)
		dto.InternalError(c, fallback)
		return
	}

	if appErr.HTTPStatus >= 500 {
		logger.Error(ctx, fallback, err)
	}
	dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}

// currentUserID 取出认证中间件注入的用户 ID
func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// currentRole 取出认证中间件注入的角色
func currentRole(c *gin.Context) string {
	return c.GetString("role")
}
