package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BlogController struct {
	BlogService *service.BlogService
}

func NewBlogController(blogService *service.BlogService) *BlogController {
	return &BlogController{BlogService: blogService}
}

// ListPosts godoc
// @Summary 博客列表
// @Description 仅已发布文章，按发布时间倒序
// @Tags 博客
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/blog [get]
func (c *BlogController) ListPosts(ctx *gin.Context) {
	c.listPosts(ctx, false)
}

// AdminListPosts godoc
// @Summary 博客列表（含草稿）
// @Tags 博客管理
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/blog [get]
func (c *BlogController) AdminListPosts(ctx *gin.Context) {
	c.listPosts(ctx, true)
}

func (c *BlogController) listPosts(ctx *gin.Context, includeDraft bool) {
	page, limit := util.PageParams(ctx)
	posts, total, err := c.BlogService.List(ctx.Request.Context(), page, limit, includeDraft)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, posts, total, page, limit)
}

// GetPost godoc
// @Summary 博客详情
// @Tags 博客
// @Produce json
// @Param slug path string true "文章 slug"
// @Success 200 {object} util.Response{data=model.BlogPost}
// @Failure 404 {object} util.Response
// @Router /api/blog/{slug} [get]
func (c *BlogController) GetPost(ctx *gin.Context) {
	post, err := c.BlogService.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), false)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// CreatePost godoc
// @Summary 发布博客
// @Description slug 缺省时由标题生成，冲突时追加序号
// @Tags 博客管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.BlogPostRequest true "文章内容"
// @Success 201 {object} util.Response{data=model.BlogPost}
// @Router /api/admin/blog [post]
func (c *BlogController) CreatePost(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req service.BlogPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	post, err := c.BlogService.Create(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, post)
}

// AdminGetPost godoc
// @Summary 博客详情（含草稿）
// @Tags 博客管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "文章ID"
// @Success 200 {object} util.Response{data=model.BlogPost}
// @Router /api/admin/blog/{id} [get]
func (c *BlogController) AdminGetPost(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid post id")
		return
	}
	post, err := c.BlogService.GetByID(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// UpdatePost godoc
// @Summary 更新博客
// @Tags 博客管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "文章ID"
// @Param body body service.BlogPostRequest true "文章内容"
// @Success 200 {object} util.Response{data=model.BlogPost}
// @Router /api/admin/blog/{id} [put]
func (c *BlogController) UpdatePost(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid post id")
		return
	}
	var req service.BlogPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	post, err := c.BlogService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// DeletePost godoc
// @Summary 删除博客
// @Tags 博客管理
// @Security ApiKeyAuth
// @Param id path int true "文章ID"
// @Success 200 {object} util.Response
// @Router /api/admin/blog/{id} [delete]
func (c *BlogController) DeletePost(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid post id")
		return
	}
	if err := c.BlogService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
