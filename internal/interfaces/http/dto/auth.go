// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"nb-studio-api/internal/domain/entity"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthUser 认证响应中的用户信息
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int       `json:"expires_in"`
	User        *AuthUser `json:"user"`
}

// ToAuthUserDTO 转换用户实体为认证响应用户信息
func ToAuthUserDTO(user *entity.User) *AuthUser {
	if user == nil {
		return nil
	}
	return &AuthUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}
}
