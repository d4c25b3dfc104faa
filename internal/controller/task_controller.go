package controller

import (
	"lingua_backend/internal/model"
	"lingua_backend/internal/service"
	"lingua_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TaskController struct {
	TaskService       *service.TaskService
	SubmissionService *service.SubmissionService
}

func NewTaskController(taskService *service.TaskService, submissionService *service.SubmissionService) *TaskController {
	return &TaskController{
		TaskService:       taskService,
		SubmissionService: submissionService,
	}
}

// CreateTaskRequest 创建任务
// swagger:model CreateTaskRequest
type CreateTaskRequest struct {
	TopicName string `json:"topicName" binding:"required"`
	Level     int    `json:"level" binding:"required,min=1"`
	TaskType  string `json:"taskType" binding:"required"`
}

// CreateTask godoc
// @Summary 创建任务
// @Description 同一用户、主题、等级、类型下只存在一个未完成任务；已存在时直接返回
// @Tags 任务
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateTaskRequest true "任务信息"
// @Success 201 {object} util.Response{data=model.Task} "新建"
// @Success 200 {object} util.Response{data=model.Task} "已有未完成任务"
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "主题等级不存在"
// @Router /api/tasks [post]
func (c *TaskController) CreateTask(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	taskType, err := model.ParseTaskType(req.TaskType)
	if err != nil {
		util.BadRequest(ctx, util.ErrInvalidTaskType.Error())
		return
	}

	task, created, err := c.TaskService.CreateTask(ctx.Request.Context(), userID, req.TopicName, req.Level, taskType)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if created {
		util.Created(ctx, task)
		return
	}
	util.Success(ctx, task)
}

// GetTasks godoc
// @Summary 当前用户的任务列表
// @Description 未完成任务在前，按创建时间倒序
// @Tags 任务
// @Produce json
// @Security ApiKeyAuth
// @Param topic query string false "主题名"
// @Success 200 {object} util.Response{data=[]model.Task}
// @Router /api/tasks [get]
func (c *TaskController) GetTasks(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	tasks, err := c.TaskService.GetUserTasks(ctx.Request.Context(), userID, ctx.Query("topic"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tasks)
}

// GetTask godoc
// @Summary 任务详情
// @Tags 任务
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tasks/{id} [get]
func (c *TaskController) GetTask(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	task, err := c.TaskService.GetTask(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	words, err := c.TaskService.GetTaskWords(ctx.Request.Context(), task.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"task":  task,
		"words": words,
	})
}

// CompleteTaskRequest 完成任务
// swagger:model CompleteTaskRequest
type CompleteTaskRequest struct {
	Score           *float64 `json:"score" binding:"required"`
	DurationSeconds *int     `json:"durationSeconds"`
}

// CompleteTask godoc
// @Summary 完成任务
// @Description 记录分数与用时；未提供用时则按创建时间计算。对话任务会结算当前等级
// @Tags 任务
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Param body body CompleteTaskRequest true "完成信息"
// @Success 200 {object} util.Response{data=model.Task}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "任务已完成"
// @Router /api/tasks/{id}/complete [post]
func (c *TaskController) CompleteTask(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req CompleteTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.TaskService.GetTask(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	completed, err := c.TaskService.CompleteTask(ctx.Request.Context(), task.ID, *req.Score, req.DurationSeconds)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, completed)
}

// AddWordsRequest 关联词汇
// swagger:model AddWordsRequest
type AddWordsRequest struct {
	WordIDs []string `json:"wordIds" binding:"required"`
}

// AddWords godoc
// @Summary 为任务关联词汇
// @Description 逐个关联，失败的词 ID 在 failed 中返回
// @Tags 任务
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Param body body AddWordsRequest true "词汇ID列表"
// @Success 200 {object} util.Response{data=service.WordLinkResult}
// @Router /api/tasks/{id}/words [post]
func (c *TaskController) AddWords(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req AddWordsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.TaskService.GetTask(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	result, err := c.TaskService.AddWordsToTask(ctx.Request.Context(), task.ID, req.WordIDs)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// SubmitRequest 提交评论
// swagger:model SubmitRequest
type SubmitRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// Submit godoc
// @Summary 提交评论
// @Description 校验评论，通过后评分并以总分完成任务；未通过时返回 422 与问题列表
// @Tags 任务
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Param body body SubmitRequest true "评论"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 422 {object} util.Response{data=service.SubmissionResult}
// @Router /api/tasks/{id}/submit [post]
func (c *TaskController) Submit(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SubmissionService.Submit(ctx.Request.Context(), userID, ctx.Param("id"), req.Comment)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if !result.Validation.Valid {
		ctx.JSON(http.StatusUnprocessableEntity, util.Response{
			Code:    http.StatusUnprocessableEntity,
			Message: "comment rejected",
			Data:    result,
		})
		return
	}
	util.Success(ctx, result)
}
