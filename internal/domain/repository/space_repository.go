// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"nb-studio-api/internal/domain/entity"
)

// SpaceRepository 空间仓储接口
type SpaceRepository interface {
	// Create 创建空间
	Create(ctx context.Context, space *entity.Space) error

	// GetByID 根据 ID 获取空间
	GetByID(ctx context.Context, id string) (*entity.Space, error)

	// Update 更新空间
	Update(ctx context.Context, space *entity.Space) error

	// Delete 删除空间
	Delete(ctx context.Context, id string) error

	// List 获取空间列表
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Space], error)

	// ListByOwner 获取指定用户拥有的全部空间
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Space, error)
}
