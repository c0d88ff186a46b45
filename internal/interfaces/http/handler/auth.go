// Package handler 提供 HTTP 请求处理器
package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
	"nb-studio-api/internal/interfaces/http/dto"
	"nb-studio-api/internal/interfaces/http/middleware"
	"nb-studio-api/pkg/logger"
	"nb-studio-api/pkg/utils"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtManager *utils.JWTManager
	cfg        middleware.AuthConfig
	userRepo   repository.UserRepository
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg middleware.AuthConfig, userRepo repository.UserRepository) *AuthHandler {
	return &AuthHandler{
		jwtManager: utils.NewJWTManager(cfg.Secret, cfg.Issuer),
		cfg:        cfg,
		userRepo:   userRepo,
	}
}

// Register 注册
// @Summary 用户注册
// @Description 创建新用户并返回双 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	exists, err := h.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		logger.Error(ctx, "failed to check email existence", err)
		dto.InternalError(c, "registration failed")
		return
	}
	if exists {
		dto.BadRequest(c, "email already registered")
		return
	}

	user := entity.NewUser(req.Email, req.Name)
	if err := user.SetPassword(req.Password); err != nil {
		logger.Error(ctx, "failed to hash password", err)
		dto.InternalError(c, "registration failed")
		return
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		logger.Error(ctx, "failed to create user", err)
		dto.InternalError(c, "registration failed")
		return
	}

	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, string(user.Role), accessTokenTTL, refreshTokenTTL)
	if err != nil {
		dto.InternalError(c, "user created but failed to generate tokens")
		return
	}

	c.SetCookie("refresh_token", tokens.RefreshToken, int(refreshTokenTTL.Seconds()), "/v1/auth/refresh", "", false, true)

	dto.Created(c, &dto.AuthResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   int(accessTokenTTL.Seconds()),
		User:        dto.ToAuthUserDTO(user),
	})
}

// Login 登录
// @Summary 用户登录
// @Description 验证邮箱密码并返回双 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "login failed")
		return
	}

	if user == nil || !user.CheckPassword(req.Password) {
		dto.Unauthorized(c, "invalid email or password")
		return
	}

	if err := h.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to update last login time", "error", err, "user_id", user.ID)
	}

	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, string(user.Role), accessTokenTTL, refreshTokenTTL)
	if err != nil {
		dto.InternalError(c, "failed to generate tokens")
		return
	}

	c.SetCookie("refresh_token", tokens.RefreshToken, int(refreshTokenTTL.Seconds()), "/v1/auth/refresh", "", false, true)

	dto.Success(c, &dto.AuthResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   int(accessTokenTTL.Seconds()),
		User:        dto.ToAuthUserDTO(user),
	})
}

// RefreshToken 刷新 Token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		dto.Unauthorized(c, "missing refresh token")
		return
	}

	claims, err := h.jwtManager.ParseToken(refreshToken)
	if err != nil {
		dto.Unauthorized(c, "invalid refresh token")
		return
	}
	if claims.Type != "refresh" {
		dto.Unauthorized(c, "invalid token type")
		return
	}

	newAccessToken, err := h.jwtManager.GenerateToken(claims.UserID, claims.Role, "access", accessTokenTTL)
	if err != nil {
		dto.InternalError(c, "failed to generate access token")
		return
	}

	dto.Success(c, gin.H{
		"access_token": newAccessToken,
		"expires_in":   int(accessTokenTTL.Seconds()),
	})
}

// Logout 登出
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("refresh_token", "", -1, "/v1/auth/refresh", "", false, true)
	dto.Success(c, gin.H{"message": "logged out success"})
}
