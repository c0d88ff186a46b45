// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
	"nb-studio-api/internal/interfaces/http/dto"
	"nb-studio-api/pkg/logger"
)

// UserHandler 用户处理器
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// Me 获取当前用户
// @Summary 获取当前用户信息
// @Tags User
// @Produce json
// @Success 200 {object} dto.Response[dto.UserResponse]
// @Router /v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.userRepo.GetByID(ctx, currentUserID(c))
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "failed to get user")
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}
	dto.Success(c, dto.ToUserDTO(user))
}

// Update 更新当前用户
// @Summary 更新当前用户信息
// @Tags User
// @Accept json
// @Produce json
// @Param body body dto.UpdateUserRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.UserResponse]
// @Router /v1/users/me [put]
func (h *UserHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByID(ctx, currentUserID(c))
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "failed to update user")
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	// 角色变更仅管理员可用
	if req.Role != nil {
		if currentRole(c) != string(entity.UserRoleAdmin) {
			dto.Forbidden(c, "only admin can change role")
			return
		}
		user.Role = entity.UserRole(*req.Role)
	}

	if err := h.userRepo.Update(ctx, user); err != nil {
		logger.Error(ctx, "failed to update user", err)
		dto.InternalError(c, "failed to update user")
		return
	}
	dto.Success(c, dto.ToUserDTO(user))
}

// ChangePassword 修改密码
// @Summary 修改当前用户密码
// @Tags User
// @Accept json
// @Produce json
// @Param body body dto.ChangePasswordRequest true "新旧密码"
// @Success 200 {object} dto.Response[gin.H]
// @Router /v1/users/me/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByID(ctx, currentUserID(c))
	if err != nil || user == nil {
		dto.InternalError(c, "failed to change password")
		return
	}

	if !user.CheckPassword(req.OldPassword) {
		dto.Unauthorized(c, "old password is incorrect")
		return
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		logger.Error(ctx, "failed to hash password", err)
		dto.InternalError(c, "failed to change password")
		return
	}
	if err := h.userRepo.Update(ctx, user); err != nil {
		logger.Error(ctx, "failed to update user", err)
		dto.InternalError(c, "failed to change password")
		return
	}
	dto.Success(c, gin.H{"message": "password changed"})
}

// List 用户列表（管理员）
// @Summary 用户列表
// @Tags User
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.UserResponse]
// @Router /v1/users [get]
func (h *UserHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if currentRole(c) != string(entity.UserRoleAdmin) {
		dto.Forbidden(c, "admin role required")
		return
	}

	page := dto.BindPage(c)
	result, err := h.userRepo.List(ctx, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list users", err)
		dto.InternalError(c, "failed to list users")
		return
	}

	dto.SuccessWithPage(c, dto.ToUserDTOs(result.Items),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}
