// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
	"nb-studio-api/internal/interfaces/http/dto"
	"nb-studio-api/pkg/logger"
)

// NotebookHandler 笔记处理器
type NotebookHandler struct {
	notebookRepo repository.NotebookRepository
	versionRepo  repository.NotebookVersionRepository
	txManager    repository.Transactor
}

// NewNotebookHandler 创建笔记处理器
func NewNotebookHandler(notebookRepo repository.NotebookRepository, versionRepo repository.NotebookVersionRepository, txManager repository.Transactor) *NotebookHandler {
	return &NotebookHandler{
		notebookRepo: notebookRepo,
		versionRepo:  versionRepo,
		txManager:    txManager,
	}
}

// Create 创建笔记
// @Summary 创建笔记
// @Tags Notebook
// @Accept json
// @Produce json
// @Param body body dto.CreateNotebookRequest true "笔记信息"
// @Success 201 {object} dto.Response[dto.NotebookResponse]
// @Router /v1/notebooks [post]
func (h *NotebookHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateNotebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	notebook := entity.NewNotebook(req.SpaceID, currentUserID(c), req.Title)
	notebook.Description = req.Description

	if err := h.notebookRepo.Create(ctx, notebook); err != nil {
		logger.Error(ctx, "failed to create notebook", err)
		dto.InternalError(c, "failed to create notebook")
		return
	}
	dto.Created(c, dto.ToNotebookDTO(notebook))
}

// Get 获取笔记
// @Summary 获取笔记详情
// @Tags Notebook
// @Produce json
// @Param nid path string true "笔记 ID"
// @Success 200 {object} dto.Response[dto.NotebookResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/notebooks/{nid} [get]
func (h *NotebookHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	notebook, err := h.notebookRepo.GetByID(ctx, dto.BindNotebookID(c))
	if err != nil {
		logger.Error(ctx, "failed to get notebook", err)
		dto.InternalError(c, "failed to get notebook")
		return
	}
	if notebook == nil {
		dto.NotFound(c, "notebook not found")
		return
	}
	dto.Success(c, dto.ToNotebookDTO(notebook))
}

// Update 更新笔记
// @Summary 更新笔记元数据
// @Tags Notebook
// @Accept json
// @Produce json
// @Param nid path string true "笔记 ID"
// @Param body body dto.UpdateNotebookRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.NotebookResponse]
// @Router /v1/notebooks/{nid} [put]
func (h *NotebookHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateNotebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	notebook, err := h.notebookRepo.GetByID(ctx, dto.BindNotebookID(c))
	if err != nil {
		logger.Error(ctx, "failed to get notebook", err)
		dto.InternalError(c, "failed to update notebook")
		return
	}
	if notebook == nil {
		dto.NotFound(c, "notebook not found")
		return
	}

	if req.Title != nil {
		notebook.Title = *req.Title
	}
	if req.Description != nil {
		notebook.Description = *req.Description
	}
	if req.Status != nil {
		notebook.Status = entity.NotebookStatus(*req.Status)
	}

	if err := h.notebookRepo.Update(ctx, notebook); err != nil {
		logger.Error(ctx, "failed to update notebook", err)
		dto.InternalError(c, "failed to update notebook")
		return
	}
	dto.Success(c, dto.ToNotebookDTO(notebook))
}

// Delete 删除笔记
// 版本历史在同一事务内级联删除。
// @Summary 删除笔记
// @Tags Notebook
// @Param nid path string true "笔记 ID"
// @Success 204
// @Router /v1/notebooks/{nid} [delete]
func (h *NotebookHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	notebookID := dto.BindNotebookID(c)

	if err := h.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := h.versionRepo.DeleteByNotebook(txCtx, notebookID); err != nil {
			return err
		}
		return h.notebookRepo.Delete(txCtx, notebookID)
	}); err != nil {
		logger.Error(ctx, "failed to delete notebook", err)
		dto.InternalError(c, "failed to delete notebook")
		return
	}
	dto.NoContent(c)
}

// List 笔记列表
// @Summary 笔记列表
// @Tags Notebook
// @Produce json
// @Param space_id query string false "空间 ID"
// @Param status query string false "状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.NotebookResponse]
// @Router /v1/notebooks [get]
func (h *NotebookHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := &repository.NotebookFilter{
		SpaceID: c.Query("space_id"),
		Status:  c.Query("status"),
	}
	page := dto.BindPage(c)

	result, err := h.notebookRepo.List(ctx, filter, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list notebooks", err)
		dto.InternalError(c, "failed to list notebooks")
		return
	}

	dto.SuccessWithPage(c, dto.ToNotebookDTOs(result.Items),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}
