// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"nb-studio-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// Update 更新用户
	Update(ctx context.Context, user *entity.User) error

	// Delete 删除用户
	Delete(ctx context.Context, id string) error

	// List 获取用户列表
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.User], error)

	// UpdateLastLogin 更新最后登录时间
	UpdateLastLogin(ctx context.Context, id string) error

	// ExistsByEmail 检查邮箱是否存在
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// ActorResolver 创建者身份解析接口
// 查询门面用其将 created_by 换取展示名；实现方失败时调用侧必须降级，
// 不得让身份查询失败中断版本读取。
type ActorResolver interface {
	// ResolveActor 解析操作者展示身份
	ResolveActor(ctx context.Context, actorID string) (displayName string, email string, err error)
}
