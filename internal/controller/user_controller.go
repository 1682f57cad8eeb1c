package controller

import (
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

// UserController 后台用户管理
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetUsers godoc
// @Summary 获取用户列表
// @Description 获取用户列表，支持分页和筛选
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Param   role query string false "角色筛选"
// @Param   status query string false "状态筛选 active/disabled"
// @Param   search query string false "搜索关键词"
// @Param   startDate query string false "开始日期 RFC3339"
// @Param   endDate query string false "结束日期 RFC3339"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/admin/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	page, limit := util.PageParams(ctx)
	filter := repository.UserFilter{
		Role:   model.UserRole(ctx.Query("role")),
		Status: ctx.Query("status"),
		Search: ctx.Query("search"),
	}

	var err error
	if s := ctx.Query("startDate"); s != "" {
		if filter.StartDate, err = time.Parse(time.RFC3339, s); err != nil {
			util.BadRequest(ctx, "无效的开始日期格式")
			return
		}
	}
	if s := ctx.Query("endDate"); s != "" {
		if filter.EndDate, err = time.Parse(time.RFC3339, s); err != nil {
			util.BadRequest(ctx, "无效的结束日期格式")
			return
		}
	}

	users, total, err := c.UserService.ListUsers(ctx.Request.Context(), filter, page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, users, total, page, limit)
}

// GetUser godoc
// @Summary 获取单个用户信息
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}
	user, err := c.UserService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateUser godoc
// @Summary 更新用户信息
// @Description 可同时修改密码；不能撤销自己的管理员身份
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body service.UpdateUserRequest true "用户更新信息"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "不能修改自己的角色"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}
	actor, ok := identityFromClaims(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateUser(ctx.Request.Context(), actor, id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// ResetPassword godoc
// @Summary 重置用户密码
// @Description 重置用户密码并返回临时密码
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/reset-password [post]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}
	temp, err := c.UserService.ResetPassword(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"tempPassword": temp})
}

// DeleteUser godoc
// @Summary 删除用户
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "不能删除自己"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}
	actor, ok := identityFromClaims(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	if err := c.UserService.DeleteUser(ctx.Request.Context(), actor, id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "用户已删除"})
}

// DisableUser godoc
// @Summary 禁用/启用用户
// @Description 被禁用的用户无法登录
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   disable query bool true "是否禁用"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "不能禁用自己"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/disable [post]
func (c *UserController) DisableUser(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}
	actor, ok := identityFromClaims(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	disable := ctx.Query("disable") == "true"
	if err := c.UserService.DisableUser(ctx.Request.Context(), actor, id, disable); err != nil {
		util.HandleError(ctx, err)
		return
	}

	status := "启用"
	if disable {
		status = "禁用"
	}
	util.Success(ctx, gin.H{"message": "用户已" + status})
}
