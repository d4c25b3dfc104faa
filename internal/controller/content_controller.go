package controller

import (
	"lingua_backend/internal/service"
	"lingua_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

// GenerateVocabularyRequest
// swagger:model GenerateVocabularyRequest
type GenerateVocabularyRequest struct {
	TaskID string `json:"taskId" binding:"required"`
	Count  int    `json:"count" binding:"omitempty,min=1,max=30"`
}

// GenerateVocabulary godoc
// @Summary 生成任务词汇
// @Description 按任务的主题与等级生成词汇，写入词库并关联到任务
// @Tags 内容
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body GenerateVocabularyRequest true "任务ID与数量"
// @Success 200 {object} util.Response{data=service.VocabularyResult}
// @Failure 503 {object} util.Response "内容生成服务不可用"
// @Router /api/content/vocabulary [post]
func (c *ContentController) GenerateVocabulary(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req GenerateVocabularyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Count == 0 {
		req.Count = 10
	}

	result, err := c.ContentService.GenerateVocabulary(ctx.Request.Context(), userID, req.TaskID, req.Count)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GeneratePostRequest
// swagger:model GeneratePostRequest
type GeneratePostRequest struct {
	TaskID string `json:"taskId" binding:"required"`
}

// GeneratePost godoc
// @Summary 生成任务源文本
// @Description 生成一篇使用任务词汇的短文，保存为任务源文本
// @Tags 内容
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body GeneratePostRequest true "任务ID"
// @Success 200 {object} util.Response{data=object}
// @Router /api/content/post [post]
func (c *ContentController) GeneratePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req GeneratePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	post, err := c.ContentService.GeneratePost(ctx.Request.Context(), userID, req.TaskID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"taskId": req.TaskID, "sourceText": post})
}
