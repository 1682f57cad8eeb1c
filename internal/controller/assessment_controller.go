package controller

import (
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

// LoadAssessment godoc
// @Summary 加载模块测验
// @Description 返回不含答案的题目；已有会话时返回当前状态
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Success 200 {object} util.Response{data=service.AssessmentView}
// @Failure 404 {object} util.Response "测验不可用"
// @Failure 503 {object} util.Response "加载失败，可重试"
// @Router /api/courses/{courseId}/modules/{moduleId}/assessment [get]
func (c *AssessmentController) LoadAssessment(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	view, err := c.AssessmentService.Load(ctx.Request.Context(), courseID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Submit godoc
// @Summary 提交答案
// @Description 返回结果序列：先 result，及格时再跟 certificateIssued 或 certificateIssueFailed
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param body body service.SubmitRequest true "题目ID -> 选项下标"
// @Success 200 {object} util.Response{data=[]service.Outcome}
// @Failure 409 {object} util.Response "已有提交在评分中"
// @Router /api/courses/{courseId}/modules/{moduleId}/assessment/submit [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcomes, err := c.AssessmentService.SubmitAndWait(ctx.Request.Context(), courseID, moduleID, model.AnswerSet(req.Answers))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, outcomes)
}

// SubmitStream godoc
// @Summary 提交答案（SSE）
// @Description 事件依次为 result、certificateIssued/certificateIssueFailed、end
// @Tags 测验
// @Accept json
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param body body service.SubmitRequest true "题目ID -> 选项下标"
// @Router /api/courses/{courseId}/modules/{moduleId}/assessment/submit/stream [post]
func (c *AssessmentController) SubmitStream(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stream, err := c.AssessmentService.Submit(ctx.Request.Context(), courseID, moduleID, model.AnswerSet(req.Answers))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	// 客户端断开后结果仍写入会话，可通过 state 接口取回
	for outcome := range stream {
		select {
		case <-ctx.Request.Context().Done():
			return
		default:
		}
		ctx.SSEvent(string(outcome.Kind), outcome)
		ctx.Writer.Flush()
	}

	ctx.SSEvent("end", "done")
	ctx.Writer.Flush()
}

// Retry godoc
// @Summary 重新作答
// @Description 出结果后（证书签发进行中除外）重新拉取测验并回到可作答状态，答案清空
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Success 200 {object} util.Response{data=service.AssessmentView}
// @Failure 409 {object} util.Response "当前状态不可重试"
// @Router /api/courses/{courseId}/modules/{moduleId}/assessment/retry [post]
func (c *AssessmentController) Retry(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	view, err := c.AssessmentService.Retry(ctx.Request.Context(), courseID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// State godoc
// @Summary 测验会话状态
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Success 200 {object} util.Response{data=service.AssessmentView}
// @Router /api/courses/{courseId}/modules/{moduleId}/assessment/state [get]
func (c *AssessmentController) State(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	view, err := c.AssessmentService.State(ctx.Request.Context(), courseID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
