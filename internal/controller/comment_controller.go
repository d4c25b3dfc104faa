package controller

import (
	"lingua_backend/internal/grading"
	"lingua_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CommentController 独立的评论校验与评分，不涉及任务状态
type CommentController struct{}

func NewCommentController() *CommentController {
	return &CommentController{}
}

// ValidateCommentRequest
// swagger:model ValidateCommentRequest
type ValidateCommentRequest struct {
	Comment    string `json:"comment"`
	SourceText string `json:"sourceText"`
}

// Validate godoc
// @Summary 校验评论
// @Tags 评论
// @Accept json
// @Produce json
// @Param body body ValidateCommentRequest true "评论与源文本"
// @Success 200 {object} util.Response{data=grading.ValidationResult}
// @Router /api/comments/validate [post]
func (c *CommentController) Validate(ctx *gin.Context) {
	var req ValidateCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, grading.Validate(req.Comment, req.SourceText))
}

// ScoreCommentRequest
// swagger:model ScoreCommentRequest
type ScoreCommentRequest struct {
	Comment       string   `json:"comment"`
	SourceText    string   `json:"sourceText"`
	RequiredWords []string `json:"requiredWords"`
	Topic         string   `json:"topic"`
}

// Score godoc
// @Summary 评论评分
// @Description 清晰度、语法、词汇、内容相关性四项各 0-100，总分上限 200
// @Tags 评论
// @Accept json
// @Produce json
// @Param body body ScoreCommentRequest true "评论、源文本、必用词与主题"
// @Success 200 {object} util.Response{data=grading.ScoringResult}
// @Router /api/comments/score [post]
func (c *CommentController) Score(ctx *gin.Context) {
	var req ScoreCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, grading.Score(req.Comment, req.SourceText, req.RequiredWords, req.Topic))
}
