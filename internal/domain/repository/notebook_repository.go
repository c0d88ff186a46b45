// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"nb-studio-api/internal/domain/entity"
)

// NotebookFilter 笔记过滤条件
type NotebookFilter struct {
	SpaceID string
	OwnerID string
	Status  string
}

// NotebookRepository 笔记仓储接口
type NotebookRepository interface {
	// Create 创建笔记
	Create(ctx context.Context, notebook *entity.Notebook) error

	// GetByID 根据 ID 获取笔记
	GetByID(ctx context.Context, id string) (*entity.Notebook, error)

	// Update 更新笔记
	Update(ctx context.Context, notebook *entity.Notebook) error

	// Delete 删除笔记（版本历史级联删除）
	Delete(ctx context.Context, id string) error

	// List 获取笔记列表
	List(ctx context.Context, filter *NotebookFilter, pagination Pagination) (*PagedResult[*entity.Notebook], error)

	// ListIDs 按批次列出笔记 ID（retention-worker 周期清理使用）
	ListIDs(ctx context.Context, offset, limit int) ([]string, error)
}
