// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
)

// NotebookRepository 笔记仓储实现
type NotebookRepository struct {
	client *Client
}

// NewNotebookRepository 创建笔记仓储
func NewNotebookRepository(client *Client) *NotebookRepository {
	return &NotebookRepository{client: client}
}

// Create 创建笔记
func (r *NotebookRepository) Create(ctx context.Context, notebook *entity.Notebook) error {
	ctx, span := tracer.Start(ctx, "postgres.NotebookRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(notebook).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create notebook: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取笔记
func (r *NotebookRepository) GetByID(ctx context.Context, id string) (*entity.Notebook, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var notebook entity.Notebook
	if err := db.First(&notebook, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get notebook: %w", err)
	}
	return &notebook, nil
}

// Update 更新笔记
func (r *NotebookRepository) Update(ctx context.Context, notebook *entity.Notebook) error {
	ctx, span := tracer.Start(ctx, "postgres.NotebookRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(notebook).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update notebook: %w", err)
	}
	return nil
}

// Delete 删除笔记
func (r *NotebookRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.NotebookRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Notebook{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete notebook: %w", err)
	}
	return nil
}

// List 获取笔记列表
func (r *NotebookRepository) List(ctx context.Context, filter *repository.NotebookFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Notebook], error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Notebook{})

	// 应用过滤条件
	if filter != nil {
		if filter.SpaceID != "" {
			query = query.Where("space_id = ?", filter.SpaceID)
		}
		if filter.OwnerID != "" {
			query = query.Where("owner_id = ?", filter.OwnerID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count notebooks: %w", err)
	}

	var notebooks []*entity.Notebook
	if err := query.Order("updated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&notebooks).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}

	return repository.NewPagedResult(notebooks, total, pagination), nil
}

// ListIDs 按批次列出笔记 ID
// retention-worker 周期清理按批扫描全部笔记时使用。
func (r *NotebookRepository) ListIDs(ctx context.Context, offset, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookRepository.ListIDs")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ids []string
	if err := db.Model(&entity.Notebook{}).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list notebook ids: %w", err)
	}
	return ids, nil
}
