// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
	"nb-studio-api/internal/interfaces/http/dto"
	"nb-studio-api/pkg/logger"
)

// SpaceHandler 空间处理器
type SpaceHandler struct {
	spaceRepo repository.SpaceRepository
}

// NewSpaceHandler 创建空间处理器
func NewSpaceHandler(spaceRepo repository.SpaceRepository) *SpaceHandler {
	return &SpaceHandler{spaceRepo: spaceRepo}
}

// Create 创建空间
// @Summary 创建空间
// @Tags Space
// @Accept json
// @Produce json
// @Param body body dto.CreateSpaceRequest true "空间信息"
// @Success 201 {object} dto.Response[dto.SpaceResponse]
// @Router /v1/spaces [post]
func (h *SpaceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	space := entity.NewSpace(currentUserID(c), req.Name)
	space.Description = req.Description
	if req.Settings != nil {
		space.Settings = req.Settings.ToSettings()
	}

	if err := h.spaceRepo.Create(ctx, space); err != nil {
		logger.Error(ctx, "failed to create space", err)
		dto.InternalError(c, "failed to create space")
		return
	}
	dto.Created(c, dto.ToSpaceDTO(space))
}

// Get 获取空间
// @Summary 获取空间详情
// @Tags Space
// @Produce json
// @Param sid path string true "空间 ID"
// @Success 200 {object} dto.Response[dto.SpaceResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/spaces/{sid} [get]
func (h *SpaceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	space, err := h.spaceRepo.GetByID(ctx, dto.BindSpaceID(c))
	if err != nil {
		logger.Error(ctx, "failed to get space", err)
		dto.InternalError(c, "failed to get space")
		return
	}
	if space == nil {
		dto.NotFound(c, "space not found")
		return
	}
	dto.Success(c, dto.ToSpaceDTO(space))
}

// Update 更新空间
// @Summary 更新空间
// @Tags Space
// @Accept json
// @Produce json
// @Param sid path string true "空间 ID"
// @Param body body dto.UpdateSpaceRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.SpaceResponse]
// @Router /v1/spaces/{sid} [put]
func (h *SpaceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	space, err := h.spaceRepo.GetByID(ctx, dto.BindSpaceID(c))
	if err != nil {
		logger.Error(ctx, "failed to get space", err)
		dto.InternalError(c, "failed to update space")
		return
	}
	if space == nil {
		dto.NotFound(c, "space not found")
		return
	}

	if req.Name != nil {
		space.Name = *req.Name
	}
	if req.Description != nil {
		space.Description = *req.Description
	}
	if req.Status != nil {
		space.Status = entity.SpaceStatus(*req.Status)
	}
	if req.Settings != nil {
		space.Settings = req.Settings.ToSettings()
	}

	if err := h.spaceRepo.Update(ctx, space); err != nil {
		logger.Error(ctx, "failed to update space", err)
		dto.InternalError(c, "failed to update space")
		return
	}
	dto.Success(c, dto.ToSpaceDTO(space))
}

// Delete 删除空间
// @Summary 删除空间
// @Tags Space
// @Param sid path string true "空间 ID"
// @Success 204
// @Router /v1/spaces/{sid} [delete]
func (h *SpaceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.spaceRepo.Delete(ctx, dto.BindSpaceID(c)); err != nil {
		logger.Error(ctx, "failed to delete space", err)
		dto.InternalError(c, "failed to delete space")
		return
	}
	dto.NoContent(c)
}

// List 空间列表
// @Summary 空间列表
// @Tags Space
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.SpaceResponse]
// @Router /v1/spaces [get]
func (h *SpaceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	page := dto.BindPage(c)
	result, err := h.spaceRepo.List(ctx, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list spaces", err)
		dto.InternalError(c, "failed to list spaces")
		return
	}

	dto.SuccessWithPage(c, dto.ToSpaceDTOs(result.Items),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}
