package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

func identityFromClaims(ctx *gin.Context) (service.Identity, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return service.Identity{}, false
	}
	return service.Identity{UserID: claims.UserID, DisplayName: claims.Name, Role: claims.Role}, true
}

// ListCourses godoc
// @Summary 已发布课程列表
// @Tags 课程
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	c.listCourses(ctx, false)
}

// AdminListCourses godoc
// @Summary 全部课程（含草稿）
// @Tags 课程管理
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/courses [get]
func (c *CourseController) AdminListCourses(ctx *gin.Context) {
	c.listCourses(ctx, true)
}

func (c *CourseController) listCourses(ctx *gin.Context, includeDraft bool) {
	page, limit := util.PageParams(ctx)
	courses, total, err := c.CourseService.ListCourses(ctx.Request.Context(), page, limit, includeDraft)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, courses, total, page, limit)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 含按顺序排列的模块
// @Tags 课程
// @Produce json
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	course, err := c.CourseService.GetCourse(ctx.Request.Context(), courseID, false)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// GetModule godoc
// @Summary 模块详情
// @Tags 课程
// @Produce json
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Success 200 {object} util.Response{data=model.Module}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId} [get]
func (c *CourseController) GetModule(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	m, err := c.CourseService.GetModule(ctx.Request.Context(), courseID, moduleID, false)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, m)
}

func courseModuleParams(ctx *gin.Context) (uint, uint, bool) {
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return 0, 0, false
	}
	moduleID, ok := util.ParamUint(ctx, "moduleId")
	if !ok {
		util.BadRequest(ctx, "invalid module id")
		return 0, 0, false
	}
	return courseID, moduleID, true
}

// Enroll godoc
// @Summary 选课
// @Description 重复选课不会报错
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	learner, ok := identityFromClaims(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	if err := c.CourseService.Enroll(ctx.Request.Context(), learner.UserID, courseID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"courseId": courseID, "enrolled": true})
}

// MyEnrollments godoc
// @Summary 我的选课
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Router /api/enrollments [get]
func (c *CourseController) MyEnrollments(ctx *gin.Context) {
	learner, ok := identityFromClaims(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	enrollments, err := c.CourseService.ListEnrollments(ctx.Request.Context(), learner.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// ListReviews godoc
// @Summary 课程评价
// @Tags 课程
// @Produce json
// @Param courseId path int true "课程ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=service.ReviewList}
// @Router /api/courses/{courseId}/reviews [get]
func (c *CourseController) ListReviews(ctx *gin.Context) {
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	page, limit := util.PageParams(ctx)
	list, err := c.CourseService.ListReviews(ctx.Request.Context(), courseID, page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// ReviewCourse godoc
// @Summary 评价课程
// @Description 每人每门课一条，重复提交覆盖
// @Tags 课程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body service.ReviewRequest true "评分与评论"
// @Success 200 {object} util.Response{data=model.Review}
// @Router /api/courses/{courseId}/reviews [post]
func (c *CourseController) ReviewCourse(ctx *gin.Context) {
	learner, ok := identityFromClaims(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	var req service.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	review, err := c.CourseService.ReviewCourse(ctx.Request.Context(), learner, courseID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, review)
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Router /api/admin/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// AdminGetCourse godoc
// @Summary 课程详情（含草稿）
// @Tags 课程管理
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Router /api/admin/courses/{courseId} [get]
func (c *CourseController) AdminGetCourse(ctx *gin.Context) {
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	course, err := c.CourseService.GetCourse(ctx.Request.Context(), courseID, true)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Router /api/admin/courses/{courseId} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.UpdateCourse(ctx.Request.Context(), courseID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Tags 课程管理
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/admin/courses/{courseId} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	if err := c.CourseService.DeleteCourse(ctx.Request.Context(), courseID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateModule godoc
// @Summary 新增模块
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body service.ModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.Module}
// @Router /api/admin/courses/{courseId}/modules [post]
func (c *CourseController) CreateModule(ctx *gin.Context) {
	courseID, ok := util.ParamUint(ctx, "courseId")
	if !ok {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	m, err := c.CourseService.CreateModule(ctx.Request.Context(), courseID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, m)
}

// UpdateModule godoc
// @Summary 更新模块
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param body body service.ModuleRequest true "模块信息"
// @Success 200 {object} util.Response{data=model.Module}
// @Router /api/admin/courses/{courseId}/modules/{moduleId} [put]
func (c *CourseController) UpdateModule(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	m, err := c.CourseService.UpdateModule(ctx.Request.Context(), courseID, moduleID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, m)
}

// DeleteModule godoc
// @Summary 删除模块
// @Tags 课程管理
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Success 200 {object} util.Response
// @Router /api/admin/courses/{courseId}/modules/{moduleId} [delete]
func (c *CourseController) DeleteModule(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	if err := c.CourseService.DeleteModule(ctx.Request.Context(), courseID, moduleID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadModuleVideo godoc
// @Summary 上传课时视频
// @Description 上传后自动探测视频时长
// @Tags 课程管理
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param moduleId path int true "模块ID"
// @Param file formData file true "视频文件"
// @Success 200 {object} util.Response{data=model.Module}
// @Failure 400 {object} util.Response
// @Router /api/admin/courses/{courseId}/modules/{moduleId}/video [post]
func (c *CourseController) UploadModuleVideo(ctx *gin.Context) {
	courseID, moduleID, ok := courseModuleParams(ctx)
	if !ok {
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	m, err := c.CourseService.UploadModuleVideo(ctx.Request.Context(), courseID, moduleID, file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, m)
}
