package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// GetQuiz godoc
// @Summary 查看模块测验（含答案）
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{courseId}/modules/{moduleId}/quiz [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	quiz, err := c.QuizService.GetModuleQuiz(ctx.Request.Context(), courseID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// SaveQuiz godoc
// @Summary 创建或整体替换模块测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param body body service.QuizInput true "测验内容"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Router /api/admin/courses/{courseId}/modules/{moduleId}/quiz [put]
func (c *QuizController) SaveQuiz(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	var req service.QuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizService.SaveModuleQuiz(ctx.Request.Context(), courseID, moduleID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary 删除模块测验
// @Tags 测验管理
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Success 200 {object} util.Response
// @Router /api/admin/courses/{courseId}/modules/{moduleId}/quiz [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	if err := c.QuizService.DeleteModuleQuiz(ctx.Request.Context(), courseID, moduleID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// RemoveOption godoc
// @Summary 删除题目选项
// @Description 删除后正确答案下标自动修正
// @Tags 测验管理
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param questionId path int true "题目ID"
// @Param position path int true "选项下标（从0开始）"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Router /api/admin/courses/{courseId}/modules/{moduleId}/quiz/questions/{questionId}/options/{position} [delete]
func (c *QuizController) RemoveOption(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	questionID, ok := util.ParamUint(ctx, "questionId")
	if !ok {
		util.BadRequest(ctx, "invalid question id")
		return
	}
	position, err := strconv.Atoi(ctx.Param("position"))
	if err != nil {
		util.BadRequest(ctx, "invalid option position")
		return
	}
	quiz, err := c.QuizService.RemoveOption(ctx.Request.Context(), courseID, moduleID, questionID, position)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}
