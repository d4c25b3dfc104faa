package controller

import (
	"errors"
	"lingua_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 把服务层的哨兵错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrTopicNotFound),
		errors.Is(err, util.ErrTopicLevelNotFound),
		errors.Is(err, util.ErrTaskNotFound):
		util.NotFoundWithMessage(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrTaskAlreadyCompleted),
		errors.Is(err, util.ErrEmailRegistered):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrInvalidTaskType),
		errors.Is(err, util.ErrInvalidLevel),
		errors.Is(err, util.ErrInvalidScore),
		errors.Is(err, util.ErrInvalidDuration):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrAIUnavailable):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// currentUserID 由 AuthMiddleware 写入
func currentUserID(ctx *gin.Context) (string, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == "" {
		util.Unauthorized(ctx)
		return "", false
	}
	return claims.UserID, true
}
