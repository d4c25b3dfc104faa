package controller

import (
	"lingua_backend/internal/service"
	"lingua_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type LevelController struct {
	Progression *service.ProgressionService
}

func NewLevelController(progression *service.ProgressionService) *LevelController {
	return &LevelController{Progression: progression}
}

// ListTopics godoc
// @Summary 主题与等级目录
// @Tags 等级
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Topic}
// @Router /api/topics [get]
func (c *LevelController) ListTopics(ctx *gin.Context) {
	topics, err := c.Progression.ListTopics(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// GetLevels godoc
// @Summary 当前用户的等级进度
// @Tags 等级
// @Produce json
// @Security ApiKeyAuth
// @Param topic query string false "主题名"
// @Success 200 {object} util.Response{data=[]service.LevelProgress}
// @Router /api/levels [get]
func (c *LevelController) GetLevels(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	levels, err := c.Progression.GetUserLevels(ctx.Request.Context(), userID, ctx.Query("topic"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, levels)
}

// CompleteLevelRequest
// swagger:model CompleteLevelRequest
type CompleteLevelRequest struct {
	TopicName string `json:"topicName" binding:"required"`
	Level     int    `json:"level"`
}

// CompleteLevel godoc
// @Summary 结算等级
// @Description 按已完成任务的平均分结算，无已完成任务时为 60 分；主题存在下一等级时将其解锁
// @Tags 等级
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CompleteLevelRequest true "主题与等级"
// @Success 200 {object} util.Response{data=service.LevelCompletionResult}
// @Failure 422 {object} util.Response{data=service.LevelCompletionResult}
// @Router /api/levels/complete [post]
func (c *LevelController) CompleteLevel(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req CompleteLevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result := c.Progression.CompleteUserLevel(ctx.Request.Context(), userID, req.TopicName, req.Level)
	if !result.Success {
		ctx.JSON(http.StatusUnprocessableEntity, util.Response{
			Code:    http.StatusUnprocessableEntity,
			Message: result.Error,
			Data:    result,
		})
		return
	}
	util.Success(ctx, result)
}

// InitializeLevels godoc
// @Summary 初始化等级
// @Description 为每个主题创建第 1 级记录，已存在的记录保持不变
// @Tags 等级
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.LevelProgress}
// @Router /api/levels/initialize [post]
func (c *LevelController) InitializeLevels(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.Progression.InitializeUserLevels(ctx.Request.Context(), userID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	levels, err := c.Progression.GetUserLevels(ctx.Request.Context(), userID, "")
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, levels)
}
